// Package docs holds the OpenAPI document served at /docs. Regenerate with
// `swag init -g cmd/api/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Scoracle"
        },
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/seasons/{seasonID}/table": {
            "get": {
                "description": "Returns the ranked table for a season. The live view overlays in-play fixtures as provisional results; the base view is the persisted table built from finished fixtures only.",
                "produces": ["application/json"],
                "tags": ["table"],
                "summary": "Get league table",
                "parameters": [
                    {"type": "integer", "description": "Season ID", "name": "seasonID", "in": "path", "required": true},
                    {"enum": ["live", "base"], "type": "string", "default": "live", "description": "Table view", "name": "view", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.TableResponse"}},
                    "304": {"description": "Not modified"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/seasons/{seasonID}/leaderboard": {
            "get": {
                "description": "Ranks users by total points awarded in a season. Season 0 ranks across all seasons.",
                "produces": ["application/json"],
                "tags": ["predictions"],
                "summary": "Get prediction leaderboard",
                "parameters": [
                    {"type": "integer", "description": "Season ID (0 for all seasons)", "name": "seasonID", "in": "path", "required": true},
                    {"type": "integer", "default": 20, "description": "Rows to return (1-100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.LeaderboardResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/fixtures/{fixtureID}": {
            "get": {
                "description": "Returns a fixture with its current status, score and prediction lock time.",
                "produces": ["application/json"],
                "tags": ["fixtures"],
                "summary": "Get fixture",
                "parameters": [
                    {"type": "integer", "description": "Fixture ID", "name": "fixtureID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.FixtureResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/predictions": {
            "post": {
                "description": "Creates or replaces the user's predicted score. Rejected once the fixture's lock time has passed.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["predictions"],
                "summary": "Submit prediction",
                "parameters": [
                    {"description": "Prediction", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.PredictionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/league.Prediction"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/predictions/{predictionID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["predictions"],
                "summary": "Get prediction",
                "parameters": [
                    {"type": "integer", "description": "Prediction ID", "name": "predictionID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/league.Prediction"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/predictions/{predictionID}/points": {
            "get": {
                "description": "Points are null until the fixture is finished and scored.",
                "produces": ["application/json"],
                "tags": ["predictions"],
                "summary": "Get prediction points",
                "parameters": [
                    {"type": "integer", "description": "Prediction ID", "name": "predictionID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.PointsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.FixtureResponse": {
            "type": "object",
            "properties": {
                "fixture": {"$ref": "#/definitions/league.Fixture"},
                "is_locked": {"type": "boolean"},
                "locks_at": {"type": "string"}
            }
        },
        "handler.LeaderboardResponse": {
            "type": "object",
            "properties": {
                "season_id": {"type": "integer"},
                "entries": {}
            }
        },
        "handler.PointsResponse": {
            "type": "object",
            "properties": {
                "prediction_id": {"type": "integer"},
                "points": {"type": "integer"},
                "scored": {"type": "boolean"}
            }
        },
        "handler.PredictionRequest": {
            "type": "object",
            "properties": {
                "user_id": {"type": "integer"},
                "fixture_id": {"type": "integer"},
                "home_score": {"type": "integer"},
                "away_score": {"type": "integer"}
            }
        },
        "handler.TableResponse": {
            "type": "object",
            "properties": {
                "season_id": {"type": "integer"},
                "view": {"type": "string"},
                "generated_at": {"type": "string"},
                "table": {}
            }
        },
        "league.Fixture": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "season_id": {"type": "integer"},
                "home_team_id": {"type": "integer"},
                "away_team_id": {"type": "integer"},
                "kickoff": {"type": "string"},
                "matchweek": {"type": "integer"},
                "status": {"type": "string", "enum": ["scheduled", "in_play", "finished"]},
                "home_score": {"type": "integer"},
                "away_score": {"type": "integer"},
                "points_calculated": {"type": "boolean"},
                "external_id": {"type": "integer"}
            }
        },
        "league.Prediction": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "user_id": {"type": "integer"},
                "fixture_id": {"type": "integer"},
                "home_score_predicted": {"type": "integer"},
                "away_score_predicted": {"type": "integer"},
                "points_awarded": {"type": "integer"},
                "updated_at": {"type": "string"}
            }
        },
        "respond.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "detail": {"type": "string"}
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8000",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Scoracle Predict API",
	Description:      "Football prediction game API: live league tables, fixtures with prediction lock status, prediction submission and points.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
