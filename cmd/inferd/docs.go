package main

// General API documentation for swaggo. Regenerate with `swag init` over this
// package, then build with -tags=swagger to serve it.
//
// @title           inferd API
// @version         1.0
// @description     Chat-completion endpoint for a single quantized GGUF model.
//
// @contact.name   inferd maintainers
// @contact.url    https://github.com/your-org/inferd
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
