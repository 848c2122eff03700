// @title           Enterprise RAG API
// @version         2.0.0
// @description     Document question answering with citations, confidence scores, summaries, knowledge graphs and audio podcasts.

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package utils

//run redis
//docker run -p 6379:6379 -d redis

//qdrant, only needed with INDEX_BACKEND=qdrant
//docker run -p 6333:6333 -p 6334:6334 -v vectorDBData:/qdrant/storage qdrant/qdrant

//local models through ollama, the default LLM_BASE_URL
//ollama pull llama3

//swagger init
//swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs
