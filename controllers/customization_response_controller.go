package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/youssefabdellah10/craftopia-sub000/services"
)

// ListMyCustomizationResponses handles GET /api/v1/customization-responses/mine.
// Returns every offer made on the caller's requests.
func ListMyCustomizationResponses(c *gin.Context) {
	customer, ok := currentCustomer(c)
	if !ok {
		return
	}

	listing, err := customizationService().GetCustomerResponses(c.Request.Context(), customer.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"responses":             listing.Responses,
		"total":                 listing.Total,
		"auto_declined_orphans": listing.SelfHealed,
	})
}

// ListArtistCustomizationResponses handles GET /api/v1/customization-responses/artist-mine
func ListArtistCustomizationResponses(c *gin.Context) {
	artist, ok := currentArtist(c)
	if !ok {
		return
	}

	listing, err := customizationService().GetArtistResponses(c.Request.Context(), artist.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, listing)
}

// AcceptCustomizationResponse handles PATCH /api/v1/customization-responses/:id/accept
func AcceptCustomizationResponse(c *gin.Context) {
	customer, ok := currentCustomer(c)
	if !ok {
		return
	}
	responseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := customizationService().AcceptResponse(c.Request.Context(), customer.ID, responseID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	publish(services.EventResponseAccepted, services.ResponseAcceptedEvent{
		ResponseID:  result.Response.ID,
		RequestID:   result.Request.ID,
		OrderID:     result.Order.ID,
		ProductID:   result.Product.ID,
		ArtistID:    result.Response.ArtistID,
		CustomerID:  result.Order.CustomerID,
		TotalAmount: result.Order.TotalAmount,
	})

	order := result.Order
	for i := range order.Items {
		if order.Items[i].ProductID == result.Product.ID {
			order.Items[i].Product = &result.Product
		}
	}

	respondData(c, http.StatusOK, gin.H{
		"response_id":             result.Response.ID,
		"status":                  result.Response.Status,
		"auto_declined_responses": result.AutoDeclined,
		"order":                   order,
		"message":                 "Customization response accepted and order created",
	})
}

// DeclineCustomizationResponse handles PATCH /api/v1/customization-responses/:id/decline
func DeclineCustomizationResponse(c *gin.Context) {
	customer, ok := currentCustomer(c)
	if !ok {
		return
	}
	responseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	response, err := customizationService().DeclineResponse(c.Request.Context(), customer.ID, responseID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	publish(services.EventResponseDeclined, services.ResponseDeclinedEvent{
		ResponseID: response.ID,
		RequestID:  response.RequestID,
		ArtistID:   response.ArtistID,
	})

	respondData(c, http.StatusOK, gin.H{
		"response_id": response.ID,
		"status":      response.Status,
	})
}
