package server

// @title branchkit API
// @version 1.0
// @description Git repository and branch automation API

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8420
// @BasePath /api
// @schemes http
