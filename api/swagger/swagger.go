package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Takwin Timetable API",
        "description": "Timetable generation and editing service for the training center",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and identity"},
        {"name": "Timetables", "description": "Generation and versioning"},
        {"name": "Optimizer", "description": "Gap analysis and corrective swaps"},
        {"name": "Editor", "description": "Manual slot moves"},
        {"name": "Catalog", "description": "Curriculum modules, sessions and syllabi"},
        {"name": "Configuration", "description": "Trainer rosters and group counts"},
        {"name": "Exports", "description": "Printable timetables"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/generate": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate a fresh timetable for a session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No feasible timetable found"}
                }
            }
        },
        "/sessions/{sessionId}/timetable": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get the active timetable of a session",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not generated yet"}
                }
            }
        },
        "/sessions/{sessionId}/timetable/trainers": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get the active timetable projected by trainer",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not generated yet"}
                }
            }
        },
        "/sessions/{sessionId}/timetable/versions": {
            "get": {
                "tags": ["Timetables"],
                "summary": "List stored timetable versions",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/versions/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get one stored timetable version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/timetables/versions/{id}/publish": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Publish a draft timetable version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Archived versions cannot be published"}
                }
            }
        },
        "/sessions/{sessionId}/optimizer/issues": {
            "get": {
                "tags": ["Optimizer"],
                "summary": "Analyze trainer schedule fragmentation",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/optimizer/propose": {
            "post": {
                "tags": ["Optimizer"],
                "summary": "Propose a corrective swap for a reported issue",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProposeSwapRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/optimizer/apply": {
            "post": {
                "tags": ["Optimizer"],
                "summary": "Apply a proposed swap",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplySwapRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Proposal is stale or conflicts"}
                }
            }
        },
        "/editor/move": {
            "post": {
                "tags": ["Editor"],
                "summary": "Move one group slot to another cell",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveSlotRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Move would double-book a trainer"}
                }
            }
        },
        "/catalog/modules": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List the curriculum modules",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog/sessions": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List the teaching sessions of the cycle",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog/modules/{moduleId}/syllabus": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Get one module's topic list for a session",
                "parameters": [
                    {"name": "moduleId", "in": "path", "required": true, "type": "integer"},
                    {"name": "session_id", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No syllabus for this module and session"}
                }
            }
        },
        "/config/trainers": {
            "get": {
                "tags": ["Configuration"],
                "summary": "Get the trainer roster per module",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Configuration"],
                "summary": "Replace the trainer roster of one module",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TrainerConfigRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/config/trainers/{moduleId}": {
            "get": {
                "tags": ["Configuration"],
                "summary": "Get the trainer roster of one module",
                "parameters": [
                    {"name": "moduleId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown module"}
                }
            }
        },
        "/config/groups": {
            "get": {
                "tags": ["Configuration"],
                "summary": "Get the configured group counts per rank",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Configuration"],
                "summary": "Set the group counts per rank",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GroupCountsRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/sessions/{sessionId}/export/csv": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download the active timetable as CSV",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        },
        "/sessions/{sessionId}/export/pdf": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download the active timetable as PDF",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "PDF file"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "session_id": {"type": "integer"},
                "seed": {"type": "integer"}
            },
            "required": ["session_id"]
        },
        "ProposeSwapRequest": {
            "type": "object",
            "properties": {
                "session_id": {"type": "integer"},
                "issue": {"type": "object"}
            },
            "required": ["session_id", "issue"]
        },
        "ApplySwapRequest": {
            "type": "object",
            "properties": {
                "session_id": {"type": "integer"},
                "proposal": {"type": "object"}
            },
            "required": ["session_id", "proposal"]
        },
        "MoveSlotRequest": {
            "type": "object",
            "properties": {
                "session_id": {"type": "integer"},
                "group_id": {"type": "string"},
                "src_day": {"type": "integer"},
                "src_hour": {"type": "integer"},
                "dst_day": {"type": "integer"},
                "dst_hour": {"type": "integer"}
            },
            "required": ["session_id", "group_id"]
        },
        "TrainerConfigRequest": {
            "type": "object",
            "properties": {
                "module_id": {"type": "integer"},
                "trainers": {"type": "object"}
            },
            "required": ["module_id", "trainers"]
        },
        "GroupCountsRequest": {
            "type": "object",
            "properties": {
                "counts": {"type": "object"}
            },
            "required": ["counts"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
