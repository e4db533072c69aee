package errs

import "github.com/m-mizutani/goerr/v2"

var (
	// Client errors (4xx)
	TagNotFound       = goerr.NewTag("not_found")       // 404
	TagValidation     = goerr.NewTag("validation")      // 400
	TagInvalidRequest = goerr.NewTag("invalid_request") // 400

	// Server errors (5xx)
	TagInternal = goerr.NewTag("internal") // 500
	TagExternal = goerr.NewTag("external") // 502
	TagTimeout  = goerr.NewTag("timeout")  // 504

	// LLM errors
	TagLLMError           = goerr.NewTag("llm_error")
	TagInvalidLLMResponse = goerr.NewTag("invalid_llm_response")

	// Configuration errors: reported per-request, never crash the process
	TagConfig = goerr.NewTag("config")
)
