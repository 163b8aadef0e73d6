// Package docs holds the OpenAPI document served under /swagger. Regenerate
// it with `swag init -g cmd/server/main.go -o docs` after changing handler
// annotations.
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
		"/feed": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Newest-first page of the posts the active character may see",
				"produces": [
					"application/json"
				],
				"tags": [
					"feed"
				],
				"summary": "Viewer feed",
				"parameters": [
					{
						"type": "string",
						"description": "all, following, team or hashtag",
						"name": "scope",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Hashtag for the hashtag scope",
						"name": "tag",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "1-based page",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size",
						"name": "page_size",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.FeedPage"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/trending/hashtags": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"feed"
				],
				"summary": "Trending hashtags",
				"parameters": [
					{
						"type": "integer",
						"description": "Maximum hashtags",
						"name": "limit",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Window in days",
						"name": "days",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/models.HashtagCount"
							}
						}
					}
				}
			}
		},
		"/characters/{id}": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"characters"
				],
				"summary": "Character profile",
				"parameters": [
					{
						"type": "integer",
						"description": "Character ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/server.characterProfile"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/characters/{id}/follow": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"characters"
				],
				"summary": "Follow or unfollow a character",
				"parameters": [
					{
						"type": "integer",
						"description": "Character ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.ToggleResult"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/characters/{id}/activate": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"characters"
				],
				"summary": "Switch the account's active character",
				"parameters": [
					{
						"type": "integer",
						"description": "Character ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/models.Character"
							}
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/notifications": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"notifications"
				],
				"summary": "List notifications",
				"parameters": [
					{
						"type": "integer",
						"description": "Maximum notifications",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/models.Notification"
							}
						}
					}
				}
			}
		},
		"/notifications/unread-count": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"notifications"
				],
				"summary": "Unread notification count",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"unread": {
									"type": "integer"
								}
							}
						}
					}
				}
			}
		},
		"/notifications/read": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"notifications"
				],
				"summary": "Mark notifications read",
				"parameters": [
					{
						"description": "Notification ids or all",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.markReadRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"updated": {
									"type": "integer"
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/posts": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Stores the post with its hashtags, tags and poll options and notifies mentioned characters",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "Create a post",
				"parameters": [
					{
						"description": "Post",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.createPostRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.Post"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/posts/{id}": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "Get a post",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Post"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "Delete a post",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/posts/{id}/like": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "Like or unlike a post",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.ToggleResult"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/posts/{id}/comments": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "List a post's comments",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/models.Comment"
							}
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "Comment on a post",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Comment",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.createCommentRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.Comment"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/posts/{id}/vote": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"polls"
				],
				"summary": "Vote on a poll",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Option",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/server.voteRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.PollResults"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/posts/{id}/poll": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"polls"
				],
				"summary": "Poll results",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.PollResults"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"models.Character": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"display_name": {
					"type": "string"
				},
				"team_id": {
					"type": "integer"
				},
				"account_id": {
					"type": "integer"
				},
				"is_active": {
					"type": "boolean"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"models.Post": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"author_id": {
					"type": "integer"
				},
				"author": {
					"$ref": "#/definitions/models.Character"
				},
				"content": {
					"type": "string"
				},
				"media_urls": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"visibility": {
					"type": "string",
					"enum": [
						"public",
						"followers",
						"team"
					]
				},
				"post_type": {
					"type": "string",
					"enum": [
						"text",
						"image",
						"video",
						"poll",
						"event"
					]
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"models.FeedItem": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"author_id": {
					"type": "integer"
				},
				"author": {
					"$ref": "#/definitions/models.Character"
				},
				"content": {
					"type": "string"
				},
				"media_urls": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"visibility": {
					"type": "string",
					"enum": [
						"public",
						"followers",
						"team"
					]
				},
				"post_type": {
					"type": "string",
					"enum": [
						"text",
						"image",
						"video",
						"poll",
						"event"
					]
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				},
				"author_name": {
					"type": "string"
				},
				"likes_count": {
					"type": "integer"
				},
				"comments_count": {
					"type": "integer"
				},
				"is_liked": {
					"type": "boolean"
				},
				"poll": {
					"$ref": "#/definitions/models.PollResults"
				}
			}
		},
		"models.FeedPage": {
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.FeedItem"
					}
				},
				"page": {
					"type": "integer"
				},
				"has_more": {
					"type": "boolean"
				}
			}
		},
		"models.Comment": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"post_id": {
					"type": "integer"
				},
				"author_id": {
					"type": "integer"
				},
				"content": {
					"type": "string"
				},
				"parent_comment_id": {
					"type": "integer"
				},
				"replies": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.Comment"
					}
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"models.HashtagCount": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"count": {
					"type": "integer"
				}
			}
		},
		"models.Notification": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"recipient_id": {
					"type": "integer"
				},
				"actor_id": {
					"type": "integer"
				},
				"action": {
					"type": "string",
					"enum": [
						"like",
						"comment",
						"follow",
						"mention",
						"tag"
					]
				},
				"is_read": {
					"type": "boolean"
				},
				"created_at": {
					"type": "string"
				}
			}
		},
		"models.PollOptionResult": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"text": {
					"type": "string"
				},
				"votes": {
					"type": "integer"
				},
				"percentage": {
					"type": "integer"
				}
			}
		},
		"models.PollResults": {
			"type": "object",
			"properties": {
				"post_id": {
					"type": "integer"
				},
				"total_votes": {
					"type": "integer"
				},
				"options": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.PollOptionResult"
					}
				},
				"voted_for": {
					"type": "integer"
				}
			}
		},
		"models.ErrorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				},
				"code": {
					"type": "string"
				},
				"details": {
					"type": "string"
				}
			}
		},
		"service.ToggleResult": {
			"type": "object",
			"properties": {
				"action": {
					"type": "string",
					"enum": [
						"liked",
						"unliked",
						"followed",
						"unfollowed"
					]
				},
				"count": {
					"type": "integer"
				}
			}
		},
		"server.characterProfile": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"display_name": {
					"type": "string"
				},
				"team_id": {
					"type": "integer"
				},
				"account_id": {
					"type": "integer"
				},
				"is_active": {
					"type": "boolean"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				},
				"followers": {
					"type": "integer"
				},
				"following": {
					"type": "integer"
				},
				"is_following": {
					"type": "boolean"
				}
			}
		},
		"server.createPostRequest": {
			"type": "object",
			"properties": {
				"content": {
					"type": "string"
				},
				"media_urls": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"visibility": {
					"type": "string",
					"enum": [
						"public",
						"followers",
						"team"
					]
				},
				"post_type": {
					"type": "string"
				},
				"poll_options": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"tagged_character_ids": {
					"type": "array",
					"items": {
						"type": "integer"
					}
				}
			}
		},
		"server.createCommentRequest": {
			"type": "object",
			"properties": {
				"content": {
					"type": "string"
				},
				"parent_comment_id": {
					"type": "integer"
				}
			}
		},
		"server.markReadRequest": {
			"type": "object",
			"properties": {
				"ids": {
					"type": "array",
					"items": {
						"type": "integer"
					}
				},
				"all": {
					"type": "boolean"
				}
			}
		},
		"server.voteRequest": {
			"type": "object",
			"properties": {
				"option_id": {
					"type": "integer"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "Type \"Bearer\" followed by a space and JWT token.",
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
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Huddle API",
	Description:      "Character-centric social feed with posts, comments, polls, follows and notifications",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
