package internal

import (
	"net/http"

	"fermmon/internal/controllers"
	"fermmon/internal/providers"
)

func InitRoutes(apiController *controllers.ApiController, telegramController *controllers.TelegramController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/fermentations", http.HandlerFunc(apiController.ListFermentations))
	routers.Post("/fermentations", http.HandlerFunc(apiController.CreateFermentation))
	routers.Get("/fermentation", http.HandlerFunc(apiController.GetFermentation))
	routers.Post("/fermentation/status", http.HandlerFunc(apiController.UpdateStatus))
	routers.Post("/readings/ingest", http.HandlerFunc(apiController.IngestReading))
	routers.Get("/readings", http.HandlerFunc(apiController.GetReadings))
	routers.Get("/history", http.HandlerFunc(apiController.GetHistory))
	routers.Get("/analysis", http.HandlerFunc(apiController.GetAnalysis))
	routers.Get("/alerts", http.HandlerFunc(apiController.GetAlerts))
	routers.Post("/alerts/ack", http.HandlerFunc(apiController.AcknowledgeAlert))
	routers.Get("/hydrometers", http.HandlerFunc(apiController.GetHydrometers))
	routers.Post("/webhook/telegram", http.HandlerFunc(telegramController.Webhook))
	return routers
}
