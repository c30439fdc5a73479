// @title           COP UI API
// @version         1.0
// @description     Task management API for the process engine, authenticated with Keycloak

// @contact.name   API Support

// @license.name  MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token from Keycloak
package main

import "github.com/UKHomeOffice/cop-ui/cmd"

func main() {
	cmd.Execute()
}
