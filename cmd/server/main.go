// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/unclebandit/campaign-dispatch/internal/controller"
	"github.com/unclebandit/campaign-dispatch/internal/db"
	"github.com/unclebandit/campaign-dispatch/internal/handler"
	"github.com/unclebandit/campaign-dispatch/internal/model"
	"github.com/unclebandit/campaign-dispatch/internal/queue"
	"github.com/unclebandit/campaign-dispatch/internal/repository"
	"github.com/unclebandit/campaign-dispatch/internal/service"
	"github.com/unclebandit/campaign-dispatch/internal/sms"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
	db.Init()
	q := queue.NewInMemoryQueue()

	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	executionRepo := &repository.ExecutionRepository{DB: db.DB}
	webhookRepo := &repository.WebhookRepository{DB: db.DB}
	recipientRepo := &repository.RecipientRepository{DB: db.DB}

	// the processing pass over received webhooks; providers without a
	// registered processor are acknowledged as audit-only records
	queue.StartWebhookProcessSubscriber(q, webhookRepo, map[string]queue.ProcessorFunc{})

	executionService := &service.ExecutionService{
		ExecutionRepo: executionRepo,
		CampaignRepo:  campaignRepo,
	}
	webhookService := &service.WebhookService{
		WebhookRepo: webhookRepo,
		Queue:       q,
	}

	// outbound SMS stack: provider client, cached credential resolver,
	// dispatcher
	smsClient := sms.NewClient(os.Getenv("SMS_PROVIDER_BASE_URL"))
	resolver := sms.NewCachedResolver(sms.NewResolver(smsClient, sms.CredentialsFromEnv()), 0)
	sender := sms.NewSender(smsClient, resolver)

	notifier := service.NewProgressNotifier(
		executionService,
		sender,
		os.Getenv("NOTIFY_TO"),
		os.Getenv("NOTIFY_FROM"),
	)

	executionController := &controller.ExecutionController{
		ExecutionService: executionService,
		RecipientRepo:    recipientRepo,
	}
	webhookController := &controller.WebhookController{
		WebhookService: webhookService,
	}
	notifierHandler := handler.NewNotifierHandler(notifier)

	// Periodic retry sweep over failed webhooks
	c := cron.New()
	c.AddFunc("@every 10m", func() {
		result, err := webhookService.RetryFailedWebhooks(nil, model.DefaultWebhookMaxRetries)
		if err != nil {
			log.Println("⚠️ webhook retry sweep failed:", err)
			return
		}
		if result.Attempted > 0 || result.Exhausted > 0 {
			log.Printf("🔁 webhook retry sweep: retried %d, skipped %d, exhausted %d\n",
				result.Retried, result.Skipped, result.Exhausted)
		}
	})
	c.Start()
	defer c.Stop()
	defer notifier.Stop()

	r := chi.NewRouter()

	// Campaign execution routes
	r.Post("/campaigns/{id}/executions", executionController.CreateExecution)
	r.Get("/campaigns/{id}/executions", executionController.ListByCampaign)
	r.Patch("/executions/{id}/progress", executionController.UpdateProgress)
	r.Post("/executions/{id}/send", executionController.StartSend)
	r.Get("/executions/stats", executionController.Stats)

	// Webhook routes
	r.Post("/webhooks/{provider}", webhookController.LogEvent)
	r.Patch("/webhooks/{id}/status", webhookController.UpdateStatus)
	r.Get("/webhooks", webhookController.ListByEvent)
	r.Get("/webhooks/failed", webhookController.ListFailed)
	r.Post("/webhooks/retry", webhookController.Retry)
	r.Get("/webhooks/stats", webhookController.Stats)

	// Notifier routes
	r.Post("/notifier/start", notifierHandler.StartHandler)
	r.Post("/notifier/stop", notifierHandler.StopHandler)
	r.Get("/notifier/status", notifierHandler.StatusHandler)

	log.Println("🚀 Server running on :8080")
	log.Fatal(http.ListenAndServe(":8080", r))
}
