// cmd/main.go
package main

import (
	"go-habit-auth/app"

	_ "go-habit-auth/docs"
)

// @title           Habit Auth API
// @version         1.0
// @description     Token-lifecycle service: session login, refresh token rotation and access token revocation.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
