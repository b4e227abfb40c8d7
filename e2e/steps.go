package e2e

import (
	"github.com/cucumber/godog"

	"tollgate/e2e/steps/common"
	"tollgate/e2e/steps/governance"
	"tollgate/e2e/steps/token"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (requests, status and field assertions)
	common.RegisterSteps(ctx, tc)

	// Register governance registry and proposal steps
	governance.RegisterSteps(ctx, tc)

	// Register token policy and transfer steps
	token.RegisterSteps(ctx, tc)
}
