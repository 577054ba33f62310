//go:build ignore
// +build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("=== Database Initialization Script ===")
	fmt.Println()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  Warning: Could not load .env file: %v\n", err)
	}

	// Get database URL
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Println("❌ DATABASE_URL environment variable not set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// First connect to default 'postgres' database to create our database
	postgresURL := strings.Replace(databaseURL, "/blood_donation", "/postgres", 1)
	fmt.Println("📡 Connecting to PostgreSQL server...")

	adminConn, err := pgx.Connect(ctx, postgresURL)
	if err != nil {
		fmt.Printf("❌ Failed to connect to PostgreSQL: %v\n", err)
		os.Exit(1)
	}

	// Check if database exists
	var exists bool
	err = adminConn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = 'blood_donation')").Scan(&exists)
	if err != nil {
		fmt.Printf("❌ Failed to check database existence: %v\n", err)
		adminConn.Close(ctx)
		os.Exit(1)
	}

	if !exists {
		fmt.Println("📦 Creating 'blood_donation' database...")
		_, err = adminConn.Exec(ctx, "CREATE DATABASE blood_donation")
		if err != nil {
			fmt.Printf("❌ Failed to create database: %v\n", err)
			adminConn.Close(ctx)
			os.Exit(1)
		}
		fmt.Println("✅ Database 'blood_donation' created!")
	} else {
		fmt.Println("✅ Database 'blood_donation' already exists")
	}
	adminConn.Close(ctx)

	// Now connect to the blood_donation database
	fmt.Println("📡 Connecting to blood_donation database...")
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		fmt.Printf("❌ Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	fmt.Println("✅ Connected to database successfully!")
	fmt.Println()

	// Read SQL file
	fmt.Println("📖 Reading SQL schema file...")
	sqlBytes, err := os.ReadFile("scripts/init_database.sql")
	if err != nil {
		fmt.Printf("❌ Failed to read SQL file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ SQL file loaded successfully!")
	fmt.Println()

	// Execute SQL
	fmt.Println("🚀 Executing database schema...")
	_, err = conn.Exec(ctx, string(sqlBytes))
	if err != nil {
		fmt.Printf("❌ Failed to execute SQL: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ Database schema executed successfully!")
	fmt.Println()

	// Verify by listing the created tables
	fmt.Println("🔍 Verifying database setup...")

	expected := []string{"donors", "appointments", "donations", "blood_units", "blood_requests"}

	rows, err := conn.Query(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = ANY($1)
		ORDER BY table_name`, expected)
	if err != nil {
		fmt.Printf("⚠️  Warning: Could not verify tables: %v\n", err)
	} else {
		defer rows.Close()
		found := 0
		fmt.Println()
		fmt.Println("   📋 Tables:")
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err == nil {
				fmt.Printf("   ✓ %s\n", name)
				found++
			}
		}
		fmt.Printf("   📊 Tables found: %d/%d\n", found, len(expected))
	}

	fmt.Println()
	fmt.Println("🎉 Database initialization completed successfully!")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Test the connection: go run scripts/test_connection.go")
	fmt.Println("  2. Run the server locally: go run ./cmd/server")
}
