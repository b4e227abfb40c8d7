package common

import (
	"context"
	"fmt"
	"strings"

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

// RegisterSteps registers generic request and assertion step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^"([^"]*)" sends (GET|POST|PUT) "([^"]*)"$`, steps.send)
	ctx.Step(`^an unauthenticated client sends (GET|POST|PUT) "([^"]*)"$`, steps.sendAnonymous)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the error should be "([^"]*)"$`, steps.errorShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.fieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should be the address of "([^"]*)"$`, steps.fieldShouldBeAddress)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) send(ctx context.Context, wallet, method, path string) error {
	return s.tc.Send(method, path, wallet, nil)
}

func (s *commonSteps) sendAnonymous(ctx context.Context, method, path string) error {
	return s.tc.Send(method, path, "", nil)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, want int) error {
	if got := s.tc.LastStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, got, s.tc.LastBody())
	}
	return nil
}

func (s *commonSteps) errorShouldBe(ctx context.Context, code string) error {
	got, err := s.tc.ResponseString("error")
	if err != nil {
		return err
	}
	if got != code {
		return fmt.Errorf("expected error %q, got %q", code, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldEqual(ctx context.Context, field, want string) error {
	got, err := s.tc.ResponseString(field)
	if err != nil {
		return err
	}
	if !strings.EqualFold(got, want) {
		return fmt.Errorf("expected %s=%q, got %q", field, want, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBeAddress(ctx context.Context, field, name string) error {
	want, err := s.tc.Address(name)
	if err != nil {
		return err
	}
	got, err := s.tc.ResponseString(field)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected %s to be %s (%s), got %s", field, name, want, got)
	}
	return nil
}
