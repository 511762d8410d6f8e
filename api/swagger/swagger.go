package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Ticket Archive Gateway",
        "description": "Forwards closed helpdesk tickets to tenant archive systems as PDF documents",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Webhooks", "description": "Helpdesk webhook intake"},
        {"name": "Forward", "description": "On-demand ticket forwarding"},
        {"name": "Audit", "description": "Forwarding audit trail"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/webhooks/ticket-closed": {
            "post": {
                "tags": ["Webhooks"],
                "summary": "Receive a ticket-closed webhook and archive the ticket",
                "parameters": [
                    {"name": "X-Webhook-Signature", "in": "header", "required": true, "type": "string"},
                    {"name": "X-Webhook-Timestamp", "in": "header", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ForwardRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forward": {
            "post": {
                "tags": ["Forward"],
                "summary": "Forward a ticket to an archive endpoint on demand",
                "parameters": [
                    {"name": "X-Api-Key", "in": "header", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ForwardRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/audit/{brandId}": {
            "get": {
                "tags": ["Audit"],
                "summary": "List recent forwarding audit records for a brand",
                "parameters": [
                    {"name": "brandId", "in": "path", "required": true, "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "X-Api-Key", "in": "header", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ForwardRequest": {
            "type": "object",
            "properties": {
                "ticketId": {"type": "integer"},
                "brandId": {"type": "string"},
                "endpointName": {"type": "string"},
                "caseNumber": {"type": "string"}
            },
            "required": ["ticketId", "brandId"]
        },
        "ForwardResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "ticketId": {"type": "integer"},
                "caseNumber": {"type": "string"},
                "documentBytes": {"type": "integer"},
                "forwarded": {"type": "integer"},
                "errors": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/AttachmentError"}
                }
            }
        },
        "AttachmentError": {
            "type": "object",
            "properties": {
                "filename": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "AuditRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "ticketId": {"type": "integer"},
                "brandId": {"type": "string"},
                "endpoint": {"type": "string"},
                "caseNumber": {"type": "string"},
                "commentCount": {"type": "integer"},
                "attachmentCount": {"type": "integer"},
                "documentBytes": {"type": "integer"},
                "durationMs": {"type": "integer"},
                "createdAt": {"type": "string"}
            }
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
