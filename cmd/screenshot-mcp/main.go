package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/Dakai666/screenshot-analyzer-mcp/internal/config"
	"github.com/Dakai666/screenshot-analyzer-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("screenshot-analyzer-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("screenshot-analyzer-mcp - MCP server for screenshot analysis")
			fmt.Println()
			fmt.Println("Usage: screenshot-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  SCREENSHOT_MCP_LOG_LEVEL=debug     Enable debug logging")
			fmt.Println("  SCREENSHOT_MCP_PYTHON=python3      Interpreter for the PaddleOCR backend")
			fmt.Println("  SCREENSHOT_MCP_SUBPROCESS_TIMEOUT  Per-call subprocess timeout (e.g. 90s)")
			fmt.Println()
			fmt.Println("All SCREENSHOT_MCP_* variables may also be placed in a .env file.")
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// A missing .env file is fine; environment variables still apply.
	_ = godotenv.Load()

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	logLevel := os.Getenv("SCREENSHOT_MCP_LOG_LEVEL")
	if logLevel == "debug" {
		log.Printf("Screenshot Analyzer MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	srv := server.New(config.Load())
	defer func() {
		if err := srv.Terminate(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
