package transcriber_fx

import (
	"os"

	"go.uber.org/fx"

	"scribly/internal/services"
)

var Module = fx.Provide(provideTranscriber)

func provideTranscriber() services.Transcriber {
	return services.NewOpenAITranscriber(os.Getenv("OPENAI_API_KEY"))
}
