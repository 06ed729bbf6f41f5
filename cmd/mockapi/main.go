// Command mockapi serves an in-memory HR backend for local development.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/httplog/v3"

	"github.com/sadopc/staffdesk/internal/config"
	"github.com/sadopc/staffdesk/internal/mockapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.Log.Level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "staffdesk-mockapi"),
		slog.String("env", "development"),
	)

	srv, err := mockapi.New(mockapi.Options{
		JWTSecret:      cfg.MockAPI.JWTSecret,
		TokenTTL:       cfg.MockAPI.TokenTTL,
		AllowedOrigins: cfg.MockAPI.AllowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		fmt.Println("Error starting mock backend:", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", cfg.MockAPI.Port)
	fmt.Printf("Mock backend running at http://localhost%s/api\n", addr)
	fmt.Printf("  admin:    %s / %s\n", mockapi.AdminEmail, mockapi.AdminPassword)
	fmt.Printf("  employee: %s / %s\n", mockapi.EmployeeEmail, mockapi.EmployeePassword)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		fmt.Println("Server error:", err)
		os.Exit(1)
	}
}
