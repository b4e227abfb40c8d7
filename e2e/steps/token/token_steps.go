package token

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Send(method, path, wallet string, body interface{}) error
	LastStatus() int
	LastBody() string
	ResponseString(field string) (string, error)
	Address(name string) (string, error)
}

// RegisterSteps registers token policy and transfer step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &tokenSteps{tc: tc}

	ctx.Step(`^the token policy is set up by "([^"]*)" and bound to governance$`, steps.setUp)
	ctx.Step(`^"([^"]*)" mints (\d+) tokens to "([^"]*)"$`, steps.mint)
	ctx.Step(`^"([^"]*)" transfers (\d+) tokens to "([^"]*)"$`, steps.transfer)
	ctx.Step(`^"([^"]*)" burns (\d+) tokens$`, steps.burn)
	ctx.Step(`^"([^"]*)" should hold (\d+) tokens$`, steps.shouldHold)
	ctx.Step(`^the ledger verifies as conserved$`, steps.ledgerConserved)
}

type tokenSteps struct {
	tc TestContext
}

// setUp creates the policy under the registry's address and binds it, unless
// an earlier scenario already did.
func (s *tokenSteps) setUp(ctx context.Context, wallet string) error {
	if err := s.tc.Send(http.MethodGet, "/v1/governance", wallet, nil); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusOK {
		return fmt.Errorf("governance must be set up first: %d %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	if bound, _ := s.tc.ResponseString("token_set"); bound == "true" {
		return nil
	}
	registry, err := s.tc.ResponseString("address")
	if err != nil {
		return err
	}

	policy, err := s.policyAddress(wallet, registry)
	if err != nil {
		return err
	}
	if err := s.tc.Send(http.MethodPost, "/v1/governance/token", wallet, map[string]interface{}{"policy": policy}); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusOK {
		return fmt.Errorf("bind token: %d %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	return nil
}

func (s *tokenSteps) policyAddress(wallet, registry string) (string, error) {
	if err := s.tc.Send(http.MethodGet, "/v1/token/policy", wallet, nil); err != nil {
		return "", err
	}
	if s.tc.LastStatus() == http.StatusOK {
		return s.tc.ResponseString("address")
	}

	body := map[string]interface{}{"governance": registry, "decimals": 6, "name": "Tollgate", "symbol": "TOLL"}
	for _, field := range []string{"mint", "bridge", "treasury", "bond"} {
		addr, err := s.tc.Address(field)
		if err != nil {
			return "", err
		}
		body[field] = addr
	}
	if err := s.tc.Send(http.MethodPost, "/v1/token/policy", wallet, body); err != nil {
		return "", err
	}
	if s.tc.LastStatus() != http.StatusCreated {
		return "", fmt.Errorf("initialize policy: %d %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	return s.tc.ResponseString("address")
}

func (s *tokenSteps) mint(ctx context.Context, wallet string, amount int, to string) error {
	addr, err := s.tc.Address(to)
	if err != nil {
		return err
	}
	return s.tc.Send(http.MethodPost, "/v1/token/mint", wallet, map[string]interface{}{"to": addr, "amount": amount})
}

func (s *tokenSteps) transfer(ctx context.Context, wallet string, amount int, to string) error {
	addr, err := s.tc.Address(to)
	if err != nil {
		return err
	}
	return s.tc.Send(http.MethodPost, "/v1/token/transfers", wallet, map[string]interface{}{"to": addr, "amount": amount})
}

func (s *tokenSteps) burn(ctx context.Context, wallet string, amount int) error {
	return s.tc.Send(http.MethodPost, "/v1/token/burn", wallet, map[string]interface{}{"amount": amount})
}

func (s *tokenSteps) shouldHold(ctx context.Context, owner string, want int) error {
	addr, err := s.tc.Address(owner)
	if err != nil {
		return err
	}
	if err := s.tc.Send(http.MethodGet, "/v1/token/balances/"+addr, owner, nil); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusOK {
		return fmt.Errorf("read balance: %d %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	got, err := s.tc.ResponseString("amount")
	if err != nil {
		return err
	}
	if got != strconv.Itoa(want) {
		return fmt.Errorf("expected %s to hold %d, got %s", owner, want, got)
	}
	return nil
}

func (s *tokenSteps) ledgerConserved(ctx context.Context) error {
	if err := s.tc.Send(http.MethodGet, "/admin/ledger/verify", "", nil); err != nil {
		return err
	}
	if s.tc.LastStatus() == http.StatusUnauthorized {
		return godog.ErrSkip
	}
	if s.tc.LastStatus() != http.StatusOK {
		return fmt.Errorf("verify ledger: %d %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	conserved, err := s.tc.ResponseString("conserved")
	if err != nil {
		return err
	}
	if conserved != "true" {
		return fmt.Errorf("ledger is not conserved: %s", s.tc.LastBody())
	}
	return nil
}
