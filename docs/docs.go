// Package docs holds the generated OpenAPI description served at /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/auth/login": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Log in",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				},
				"parameters": [
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/controllers.LoginRequest"
						}
					}
				]
			}
		},
		"/auth/me": {
			"get": {
				"tags": [
					"auth"
				],
				"summary": "Current user",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/auth/password": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Change password",
				"produces": [
					"application/json"
				],
				"responses": {
					"204": {
						"description": "password changed"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/controllers.ChangePasswordRequest"
						}
					}
				]
			}
		},
		"/events": {
			"get": {
				"tags": [
					"events"
				],
				"summary": "List events",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				}
			},
			"post": {
				"tags": [
					"events"
				],
				"summary": "Create an event",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "created event",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/events/mine": {
			"get": {
				"tags": [
					"events"
				],
				"summary": "List my events",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/events/{eventId}": {
			"get": {
				"tags": [
					"events"
				],
				"summary": "Get an event",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "Event ID",
						"name": "eventId",
						"in": "path",
						"required": true
					}
				]
			},
			"put": {
				"tags": [
					"events"
				],
				"summary": "Update an event",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Event ID",
						"name": "eventId",
						"in": "path",
						"required": true
					}
				]
			},
			"delete": {
				"tags": [
					"events"
				],
				"summary": "Delete an event",
				"produces": [
					"application/json"
				],
				"responses": {
					"204": {
						"description": "deleted"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Event ID",
						"name": "eventId",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/bookings/event/{eventId}": {
			"post": {
				"tags": [
					"bookings"
				],
				"summary": "Book a free event",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "booking summary",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Event ID",
						"name": "eventId",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/controllers.BookingForm"
						}
					}
				]
			},
			"get": {
				"tags": [
					"bookings"
				],
				"summary": "List bookings of an event",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Event ID",
						"name": "eventId",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Page (default 1)",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size (default 10, max 100)",
						"name": "limit",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Set to excel for a spreadsheet download",
						"name": "export",
						"in": "query"
					}
				]
			}
		},
		"/bookings/event/{eventId}/stats": {
			"get": {
				"tags": [
					"bookings"
				],
				"summary": "Booking statistics of an event",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Event ID",
						"name": "eventId",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/bookings/user": {
			"get": {
				"tags": [
					"bookings"
				],
				"summary": "List my bookings",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/bookings/{bookingId}": {
			"get": {
				"tags": [
					"bookings"
				],
				"summary": "Get a booking",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Booking ID",
						"name": "bookingId",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/payments/order/{eventId}": {
			"post": {
				"tags": [
					"payments"
				],
				"summary": "Create a payment order",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Event ID",
						"name": "eventId",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/controllers.CreateOrderRequest"
						}
					}
				]
			}
		},
		"/payments/verify/{eventId}": {
			"post": {
				"tags": [
					"payments"
				],
				"summary": "Verify a payment and finalize the booking",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "booking summary",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Event ID",
						"name": "eventId",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/controllers.VerifyPaymentRequest"
						}
					}
				]
			}
		}
	},
	"definitions": {
		"helpers.APIError": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				},
				"message": {
					"type": "string"
				},
				"bookingId": {
					"type": "string"
				}
			}
		},
		"helpers.APIResponse": {
			"type": "object",
			"properties": {
				"data": {},
				"error": {
					"$ref": "#/definitions/helpers.APIError"
				}
			}
		},
		"controllers.LoginRequest": {
			"type": "object",
			"properties": {
				"username": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"controllers.ChangePasswordRequest": {
			"type": "object",
			"properties": {
				"current_password": {
					"type": "string"
				},
				"new_password": {
					"type": "string"
				}
			}
		},
		"controllers.BookingForm": {
			"type": "object",
			"properties": {
				"fullName": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"phone": {
					"type": "string"
				},
				"rollNumber": {
					"type": "string"
				},
				"degree": {
					"type": "string"
				},
				"college": {
					"type": "string"
				},
				"department": {
					"type": "string"
				},
				"section": {
					"type": "integer"
				},
				"year": {
					"type": "string"
				}
			}
		},
		"controllers.CreateOrderRequest": {
			"type": "object",
			"properties": {
				"bookingData": {
					"$ref": "#/definitions/controllers.BookingForm"
				}
			}
		},
		"controllers.VerifyPaymentRequest": {
			"type": "object",
			"properties": {
				"razorpay_order_id": {
					"type": "string"
				},
				"razorpay_payment_id": {
					"type": "string"
				},
				"razorpay_signature": {
					"type": "string"
				},
				"bookingData": {
					"$ref": "#/definitions/controllers.BookingForm"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "Type \"Bearer\" followed by a space and the JWT.",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "EventX API",
	Description:      "Campus event listing, booking, and payment API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
