package governance

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Send(method, path, wallet string, body interface{}) error
	LastStatus() int
	LastBody() string
	ResponseString(field string) (string, error)
	Address(name string) (string, error)
	Remember(name, value string)
	Recall(name string) (string, error)
}

const lastProposal = "last proposal"

var listKinds = map[string]string{
	"blacklist":         "set_blacklist",
	"restrict":          "set_restricted",
	"exempt":            "set_sell_limit_exempt",
	"register the pool": "set_liquidity_pool",
	"add the signer":    "add_signer",
	"remove the signer": "remove_signer",
}

// RegisterSteps registers registry and proposal step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &governanceSteps{tc: tc}

	ctx.Step(`^governance is set up by "([^"]*)" with a cooldown of (\d+) seconds?$`, steps.setUp)

	ctx.Step(`^"([^"]*)" proposes to (blacklist|restrict|exempt|register the pool|add the signer|remove the signer) "([^"]*)"$`, steps.proposeAccount)
	ctx.Step(`^"([^"]*)" proposes an emergency pause$`, steps.proposePause)
	ctx.Step(`^"([^"]*)" proposes to clear the emergency pause$`, steps.proposeClearPause)
	ctx.Step(`^"([^"]*)" pauses transfers immediately$`, steps.pauseNow)

	ctx.Step(`^"([^"]*)" approves the last proposal$`, steps.approve)
	ctx.Step(`^"([^"]*)" executes the last proposal$`, steps.execute)
	ctx.Step(`^"([^"]*)" rejects the last proposal because "([^"]*)"$`, steps.reject)
	ctx.Step(`^the cooldown has elapsed$`, steps.waitCooldown)
	ctx.Step(`^the last proposal should be "([^"]*)"$`, steps.proposalStatus)

	ctx.Step(`^"([^"]*)" has the last proposal executed$`, steps.passLastProposal)
}

type governanceSteps struct {
	tc       TestContext
	cooldown time.Duration
}

// setUp initializes the registry on first use. Later scenarios find it in
// place and only check that wallet still holds the authority.
func (s *governanceSteps) setUp(ctx context.Context, wallet string, seconds int) error {
	s.cooldown = time.Duration(seconds) * time.Second
	if err := s.tc.Send(http.MethodGet, "/v1/governance", wallet, nil); err != nil {
		return err
	}
	switch s.tc.LastStatus() {
	case http.StatusOK:
		return s.expectAuthority(wallet)
	case http.StatusNotFound:
	default:
		return fmt.Errorf("read registry: %d %s", s.tc.LastStatus(), s.tc.LastBody())
	}

	if err := s.tc.Send(http.MethodPost, "/v1/governance", wallet, nil); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusCreated {
		return fmt.Errorf("initialize governance: %d %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	if err := s.tc.Send(http.MethodPut, "/v1/governance/cooldown", wallet, map[string]interface{}{"seconds": seconds}); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusOK {
		return fmt.Errorf("set cooldown: %d %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	return nil
}

func (s *governanceSteps) expectAuthority(wallet string) error {
	want, err := s.tc.Address(wallet)
	if err != nil {
		return err
	}
	got, err := s.tc.ResponseString("authority")
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("registry authority is %s, not %s; restart the server", got, wallet)
	}
	return nil
}

func (s *governanceSteps) propose(wallet string, body map[string]interface{}) error {
	if err := s.tc.Send(http.MethodPost, "/v1/governance/proposals", wallet, body); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusCreated {
		return nil
	}
	id, err := s.tc.ResponseString("id")
	if err != nil {
		return err
	}
	s.tc.Remember(lastProposal, id)
	return nil
}

func (s *governanceSteps) proposeAccount(ctx context.Context, wallet, verb, target string) error {
	account, err := s.tc.Address(target)
	if err != nil {
		return err
	}
	return s.propose(wallet, map[string]interface{}{
		"kind":    listKinds[verb],
		"account": account,
		"enabled": true,
	})
}

func (s *governanceSteps) proposePause(ctx context.Context, wallet string) error {
	return s.propose(wallet, map[string]interface{}{"kind": "set_emergency_pause"})
}

func (s *governanceSteps) proposeClearPause(ctx context.Context, wallet string) error {
	return s.propose(wallet, map[string]interface{}{"kind": "clear_emergency_pause"})
}

func (s *governanceSteps) pauseNow(ctx context.Context, wallet string) error {
	return s.tc.Send(http.MethodPost, "/v1/governance/pause", wallet, nil)
}

func (s *governanceSteps) proposalPath(suffix string) (string, error) {
	id, err := s.tc.Recall(lastProposal)
	if err != nil {
		return "", err
	}
	return "/v1/governance/proposals/" + id + suffix, nil
}

func (s *governanceSteps) transition(wallet, suffix string, body interface{}) error {
	path, err := s.proposalPath(suffix)
	if err != nil {
		return err
	}
	return s.tc.Send(http.MethodPost, path, wallet, body)
}

func (s *governanceSteps) approve(ctx context.Context, wallet string) error {
	return s.transition(wallet, "/approve", nil)
}

func (s *governanceSteps) execute(ctx context.Context, wallet string) error {
	return s.transition(wallet, "/execute", nil)
}

func (s *governanceSteps) reject(ctx context.Context, wallet, reason string) error {
	return s.transition(wallet, "/reject", map[string]interface{}{"reason": reason})
}

func (s *governanceSteps) waitCooldown(ctx context.Context) error {
	select {
	case <-time.After(s.cooldown + 250*time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *governanceSteps) proposalStatus(ctx context.Context, want string) error {
	path, err := s.proposalPath("")
	if err != nil {
		return err
	}
	if err := s.tc.Send(http.MethodGet, path, "observer", nil); err != nil {
		return err
	}
	got, err := s.tc.ResponseString("status")
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected proposal %s, got %s", want, got)
	}
	return nil
}

// passLastProposal waits out the cooldown and executes, for scenarios where
// governance is setup rather than the subject.
func (s *governanceSteps) passLastProposal(ctx context.Context, wallet string) error {
	if _, err := s.tc.Recall(lastProposal); err != nil {
		return fmt.Errorf("proposal was not created: %d %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	if err := s.waitCooldown(ctx); err != nil {
		return err
	}
	if err := s.execute(ctx, wallet); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusOK {
		return fmt.Errorf("execute proposal: %d %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	return nil
}
