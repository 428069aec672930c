// Package docs registers the llmcore OpenAPI document with swag. The
// document is maintained by hand alongside the routes in package httpapi.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {"get": {"summary": "Liveness probe", "produces": ["text/plain"], "responses": {"200": {"description": "ok"}}}},
        "/readyz": {"get": {"summary": "Readiness probe", "produces": ["text/plain"], "responses": {"200": {"description": "ready"}, "503": {"description": "runtime not initialized"}}}},
        "/system": {"get": {"summary": "Runtime, GPU and CPU details", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SystemInfo"}}}}},
        "/models": {
            "get": {
                "summary": "List model files and loaded handles",
                "produces": ["application/json"],
                "parameters": [{"name": "refresh", "in": "query", "type": "string", "description": "Rescan the models directory first"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}}
            },
            "post": {
                "summary": "Load a model by registry id or path",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.LoadRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.ModelInfo"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Unknown model id", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "422": {"description": "Model failed to load", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/models/{ref}": {
            "parameters": [{"name": "ref", "in": "path", "required": true, "type": "string", "description": "Handle (0x...) or loaded model name"}],
            "get": {"summary": "Loaded model metadata", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelInfo"}}, "404": {"description": "Unknown handle", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}}},
            "delete": {"summary": "Unload a model", "responses": {"204": {"description": "Unloaded"}, "404": {"description": "Unknown handle", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}}}
        },
        "/models/{ref}/tokenize": {
            "parameters": [{"name": "ref", "in": "path", "required": true, "type": "string"}],
            "post": {"summary": "Tokenize text", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.TokenizeRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.TokenizeResponse"}}}}
        },
        "/models/{ref}/detokenize": {
            "parameters": [{"name": "ref", "in": "path", "required": true, "type": "string"}],
            "post": {"summary": "Render tokens as text", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.DetokenizeRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DetokenizeResponse"}}}}
        },
        "/models/{ref}/generate": {
            "parameters": [{"name": "ref", "in": "path", "required": true, "type": "string"}],
            "post": {
                "summary": "Generate a completion",
                "description": "With stream=true the response is NDJSON, one StreamChunk per line; the last line has final=true.",
                "consumes": ["application/json"],
                "produces": ["application/json", "application/x-ndjson"],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.GenerateRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.GenerateResponse"}},
                    "429": {"description": "Queue full", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "504": {"description": "Generate timeout", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/models/{ref}/embed": {
            "parameters": [{"name": "ref", "in": "path", "required": true, "type": "string"}],
            "post": {"summary": "Compute an embedding", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.EmbedRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.EmbedResponse"}}, "501": {"description": "Model has no embedding path", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}}}
        }
    },
    "definitions": {
        "types.ErrorResponse": {"type": "object", "properties": {"error": {"type": "string"}, "code": {"type": "integer"}}},
        "types.Model": {"type": "object", "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "path": {"type": "string"}, "size_bytes": {"type": "integer"}}},
        "types.ModelsResponse": {"type": "object", "properties": {"available": {"type": "array", "items": {"$ref": "#/definitions/types.Model"}}, "loaded": {"type": "array", "items": {"$ref": "#/definitions/types.ModelInfo"}}}},
        "types.LoadRequest": {"type": "object", "properties": {"id": {"type": "string"}, "path": {"type": "string"}, "context_size": {"type": "integer"}, "gpu_layers": {"type": "integer"}, "threads": {"type": "integer"}, "batch_size": {"type": "integer"}, "use_mmap": {"type": "boolean"}}},
        "types.ModelInfo": {"type": "object", "properties": {
            "handle": {"type": "string"}, "path": {"type": "string"}, "name": {"type": "string"},
            "architecture": {"type": "string"}, "quantization": {"type": "string"},
            "context_size": {"type": "integer"}, "train_context_size": {"type": "integer"},
            "vocab_size": {"type": "integer"}, "embedding_size": {"type": "integer"},
            "layer_count": {"type": "integer"}, "head_count": {"type": "integer"},
            "parameter_count": {"type": "integer"}, "file_size_bytes": {"type": "integer"},
            "threads": {"type": "integer"}, "batch_size": {"type": "integer"}, "gpu_layers": {"type": "integer"},
            "supports_embedding": {"type": "boolean"}, "supports_vision": {"type": "boolean"},
            "chat_template": {"type": "string"}}},
        "types.SystemInfo": {"type": "object", "properties": {
            "version": {"type": "string"}, "backend": {"type": "string"}, "backend_version": {"type": "string"},
            "gpu": {"type": "boolean"}, "gpu_backend": {"type": "string"}, "vram_bytes": {"type": "integer"},
            "cpu_brand": {"type": "string"}, "physical_cores": {"type": "integer"}, "logical_cores": {"type": "integer"},
            "default_threads": {"type": "integer"}, "cpu_features": {"type": "array", "items": {"type": "string"}}}},
        "types.TokenizeRequest": {"type": "object", "properties": {"text": {"type": "string"}, "add_special": {"type": "boolean"}}},
        "types.TokenizeResponse": {"type": "object", "properties": {"tokens": {"type": "array", "items": {"type": "integer"}}}},
        "types.DetokenizeRequest": {"type": "object", "properties": {"tokens": {"type": "array", "items": {"type": "integer"}}}},
        "types.DetokenizeResponse": {"type": "object", "properties": {"text": {"type": "string"}}},
        "types.GenerateRequest": {"type": "object", "properties": {
            "prompt": {"type": "string"}, "tokens": {"type": "array", "items": {"type": "integer"}},
            "add_special": {"type": "boolean"}, "stream": {"type": "boolean"},
            "max_tokens": {"type": "integer"}, "temperature": {"type": "number"}, "top_p": {"type": "number"},
            "top_k": {"type": "integer"}, "min_p": {"type": "number"}, "repetition_penalty": {"type": "number"},
            "seed": {"type": "integer"}}},
        "types.GenerateResponse": {"type": "object", "properties": {
            "tokens": {"type": "array", "items": {"type": "integer"}}, "text": {"type": "string"},
            "finish_reason": {"type": "string", "enum": ["stop", "length", "error"]}, "prompt_tokens": {"type": "integer"}}},
        "types.StreamChunk": {"type": "object", "properties": {
            "token": {"type": "integer"}, "text": {"type": "string"}, "final": {"type": "boolean"},
            "finish_reason": {"type": "string"}, "error": {"type": "string"}}},
        "types.EmbedRequest": {"type": "object", "properties": {"text": {"type": "string"}, "tokens": {"type": "array", "items": {"type": "integer"}}, "normalize": {"type": "boolean"}}},
        "types.EmbedResponse": {"type": "object", "properties": {"embedding": {"type": "array", "items": {"type": "number"}}, "dimension": {"type": "integer"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "llmcore API",
	Description:      "HTTP API for loading local language models, tokenization, generation and embeddings.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
