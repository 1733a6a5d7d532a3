package internal

import (
	"net/http"
	"pickme/internal/controllers"
	"pickme/internal/providers"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/state", http.HandlerFunc(apiController.GetState))
	routers.Get("/students", http.HandlerFunc(apiController.GetStudents))
	routers.Get("/history", http.HandlerFunc(apiController.GetHistory))
	routers.Get("/selection", http.HandlerFunc(apiController.GetSelection))
	return routers
}
