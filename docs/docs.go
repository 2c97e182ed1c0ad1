// Package docs описание API витрины для swagger UI на /docs/*.
// Пересобирается командой swag init -g cmd/storefront/main.go.
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
		"/plans": {
			"get": {
				"tags": [
					"Plans"
				],
				"summary": "Каталог тарифов",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"default": {
						"description": "Ошибка",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				}
			}
		},
		"/auth/register": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Регистрация покупателя",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"default": {
						"description": "Ошибка",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			}
		},
		"/auth/login": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Вход покупателя",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"default": {
						"description": "Ошибка",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			}
		},
		"/account": {
			"get": {
				"tags": [
					"Account"
				],
				"summary": "Личный кабинет",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"default": {
						"description": "Ошибка",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
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
		"/account/receipts": {
			"post": {
				"tags": [
					"Account"
				],
				"summary": "Загрузить квитанцию",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"default": {
						"description": "Ошибка",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/account/password": {
			"post": {
				"tags": [
					"Account"
				],
				"summary": "Сменить пароль",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"default": {
						"description": "Ошибка",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/check-subscriptions": {
			"get": {
				"tags": [
					"Subscription"
				],
				"summary": "Истечь просроченные подписки",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"default": {
						"description": "Ошибка",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"CronSecret": []
					}
				]
			}
		},
		"/subscription/activate": {
			"post": {
				"tags": [
					"Subscription"
				],
				"summary": "Активировать или продлить подписку",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"default": {
						"description": "Ошибка",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"AdminSession": []
					}
				]
			}
		},
		"/test-notification": {
			"post": {
				"tags": [
					"Admin"
				],
				"summary": "Тестовое уведомление",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"default": {
						"description": "Ошибка",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"AdminSession": []
					}
				]
			}
		},
		"/admin/login": {
			"post": {
				"tags": [
					"Admin"
				],
				"summary": "Вход администратора",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"default": {
						"description": "Ошибка",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			}
		},
		"/admin/logout": {
			"post": {
				"tags": [
					"Admin"
				],
				"summary": "Выход администратора",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"default": {
						"description": "Ошибка",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"AdminSession": []
					}
				]
			}
		},
		"/admin/users": {
			"get": {
				"tags": [
					"Admin"
				],
				"summary": "Пользователи с квитанциями",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"default": {
						"description": "Ошибка",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"AdminSession": []
					}
				]
			}
		},
		"/admin/users/delete": {
			"post": {
				"tags": [
					"Admin"
				],
				"summary": "Удалить пользователя",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"default": {
						"description": "Ошибка",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"AdminSession": []
					}
				]
			}
		},
		"/admin/users/toggle-access": {
			"post": {
				"tags": [
					"Admin"
				],
				"summary": "Переключить доступ",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"default": {
						"description": "Ошибка",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"AdminSession": []
					}
				]
			}
		},
		"/admin/users/expire": {
			"post": {
				"tags": [
					"Admin"
				],
				"summary": "Истечь подписку",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"default": {
						"description": "Ошибка",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"AdminSession": []
					}
				]
			}
		},
		"/admin/users/deactivate": {
			"post": {
				"tags": [
					"Admin"
				],
				"summary": "Деактивировать подписку",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"default": {
						"description": "Ошибка",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"AdminSession": []
					}
				]
			}
		},
		"/admin/receipts/review": {
			"post": {
				"tags": [
					"Admin"
				],
				"summary": "Проверить квитанцию",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"default": {
						"description": "Ошибка",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"AdminSession": []
					}
				]
			}
		}
	},
	"definitions": {
		"response.ErrorResponse": {
			"type": "object",
			"properties": {
				"success": {
					"type": "boolean"
				},
				"error": {
					"type": "string"
				},
				"details": {
					"type": "string"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		},
		"CronSecret": {
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		},
		"AdminSession": {
			"type": "apiKey",
			"name": "admin_session",
			"in": "cookie"
		}
	}
}`

// SwaggerInfo метаданные API, подставляются в docTemplate.
var SwaggerInfo = &swag.Spec{
	Version:		  "1.0",
	Host:			 "localhost:8080",
	BasePath:		 "/api",
	Schemes:		  []string{},
	Title:			"Media Storefront API",
	Description:	  "Витрина подписок на медиасервер: оплата, активация и истечение доступа.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
