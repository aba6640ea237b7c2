package server

import (
	"github.com/smartforge-lab/smartforge/internal/api"
	"github.com/smartforge-lab/smartforge/internal/chain"
	"github.com/smartforge-lab/smartforge/internal/compiler"
	"github.com/smartforge-lab/smartforge/internal/config"
	"github.com/smartforge-lab/smartforge/internal/services"
	"gorm.io/gorm"
)

// InitializeServices wires the service graph for the API server.
func InitializeServices(db *gorm.DB, cfg *config.Config) (api.Services, *compiler.Compiler, *chain.PaymentVerifier) {
	solc := compiler.NewCompiler()
	deployer := chain.NewDeployer(cfg.DeployerPrivateKey)
	explorer := chain.NewExplorerClient(cfg.EtherscanAPIKey)
	payments := chain.NewPaymentVerifier(cfg.PaymentRPCURL, cfg.PaymentTokenAddress, cfg.PaymentRecipientAddress)

	userService := services.NewUserService(db)
	projectService := services.NewProjectService(db)
	subscriptionService := services.NewSubscriptionService(db)
	jobService := services.NewJobService(db)
	deployService := services.NewDeployService(projectService, jobService, solc, deployer)
	verificationService := services.NewVerificationService(projectService, jobService, explorer, solc.FullVersion())

	return api.Services{
		Users:         userService,
		Projects:      projectService,
		Subscriptions: subscriptionService,
		Jobs:          jobService,
		Deploy:        deployService,
		Verification:  verificationService,
	}, solc, payments
}
