package main

// General API documentation for swaggo. The generated document lives in
// internal/httpapi/docs and is served when built with -tags=swagger.
//
// @title           llmcore API
// @version         1.0
// @description     HTTP API for loading local language models, tokenization, generation and embeddings.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
