// Comando token: emite un JWT de prueba para un usuario y rol.
//
// Uso: JWT_SECRET=... go run ./cmd/token -user u-1 -role stockist
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/inventario-ledger/internal/domain/access"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/jwt"
)

func main() {
	userID := flag.String("user", "", "ID del usuario (sub)")
	role := flag.String("role", "viewer", "administrator | stockist | viewer")
	minutes := flag.Int("exp", 0, "minutos de vigencia (0 = JWT_EXPIRATION_MINUTES)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	if _, ok := access.ParseRole(*role); !ok {
		fail(fmt.Errorf("rol desconocido: %q", *role))
	}
	exp := cfg.JWT.Expiration
	if *minutes > 0 {
		exp = *minutes
	}

	tok, err := jwt.Generate(cfg.JWT.Secret, *userID, *role, cfg.JWT.Issuer, exp)
	if err != nil {
		fail(err)
	}
	fmt.Println(tok)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
