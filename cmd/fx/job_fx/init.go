package job_fx

import (
	"log"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"scribly/internal/api/controllers"
	"scribly/internal/config"
	"scribly/internal/infra"
	"scribly/internal/repositories"
	"scribly/internal/services"
)

var Module = fx.Provide(
	provideJobRepo, provideBlobStore, provideJobService, controllers.NewJobController)

func provideJobRepo(db *gorm.DB) repositories.JobRepository {
	return repositories.NewJobRepository(db)
}

func provideBlobStore() infra.BlobStore {
	store, err := infra.NewFileBlobStore(config.Getenv("TRANSCRIPT_BLOB_DIR", "./data/transcripts"))
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}
	return store
}

func provideJobService(
	jobRepo repositories.JobRepository,
	accountRepo repositories.AccountRepository,
	billing services.BillingService,
	transcriber services.Transcriber,
	blobs infra.BlobStore,
	mail services.IMailService,
) services.JobServiceInterface {
	return services.NewJobService(jobRepo, accountRepo, billing, transcriber, blobs, mail)
}
