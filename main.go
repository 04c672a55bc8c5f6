package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"jira-notion-mcp-server/internal/application"
	"jira-notion-mcp-server/internal/domain"
	"jira-notion-mcp-server/internal/infrastructure"
)

func main() {
	configPath := flag.String("config", "", "Path to optional YAML configuration file (credentials always come from the environment)")
	flag.Parse()

	// Configuration errors are the only fatal errors in this process;
	// everything after startup surfaces through tool failure envelopes.
	config, err := domain.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Println("Configuration loaded successfully")

	authManager := domain.NewAuthenticationManagerFromConfig(config)

	jiraHTTP, err := authManager.GetAuthenticatedClient("jira")
	if err != nil {
		log.Fatalf("Failed to create authenticated client for Jira: %v", err)
	}
	notionHTTP, err := authManager.GetAuthenticatedClient("notion")
	if err != nil {
		log.Fatalf("Failed to create authenticated client for Notion: %v", err)
	}

	jiraClient := infrastructure.NewJiraClient(config.Jira.BaseURL(), jiraHTTP)
	agileClient := infrastructure.NewAgileClient(config.Jira.BaseURL(), jiraHTTP)
	notionClient := infrastructure.NewNotionClient(notionHTTP)

	mapper := domain.NewResponseMapper()

	handlers := []domain.ToolHandler{
		application.NewJiraIssueHandler(jiraClient, agileClient, mapper, &config.Jira),
		application.NewJiraBoardHandler(agileClient, mapper),
		application.NewJiraSprintHandler(agileClient, mapper),
		application.NewNotionPageHandler(notionClient, mapper),
		application.NewNotionDatabaseHandler(notionClient, mapper),
		application.NewNotionBlockHandler(notionClient, mapper),
		application.NewNotionUserHandler(notionClient, mapper),
	}

	router, err := application.NewRequestRouter(mapper, handlers...)
	if err != nil {
		log.Fatalf("Failed to build request router: %v", err)
	}
	log.Printf("Request router initialized with %d tool(s)", len(router.ListAllTools()))

	var transport domain.Transport
	switch config.Transport.Type {
	case "stdio":
		log.Println("Initializing stdio transport")
		transport = domain.NewStdioTransport()
	case "http":
		log.Printf("Initializing HTTP transport on %s:%d", config.Transport.HTTP.Host, config.Transport.HTTP.Port)
		transport = domain.NewHTTPTransport(config.Transport.HTTP.Host, config.Transport.HTTP.Port)
	default:
		log.Fatalf("Invalid transport type: %s", config.Transport.Type)
	}

	server := application.NewServer(transport, router, config)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			errChan <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	if config.Transport.Type == "stdio" {
		log.Println("MCP server started (stdio transport)")
	} else {
		log.Printf("MCP server started (HTTP transport on %s:%d)",
			config.Transport.HTTP.Host, config.Transport.HTTP.Port)
	}

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		cancel()
	case err := <-errChan:
		log.Printf("Server error: %v", err)
		cancel()
		if err := server.Close(); err != nil {
			log.Printf("Error closing server: %v", err)
		}
		os.Exit(1)
	}

	if err := server.Close(); err != nil {
		log.Printf("Error during server shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server shutdown complete")
}
