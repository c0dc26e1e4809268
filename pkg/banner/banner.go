package banner

import (
	"fmt"
)

const banner = `
 ██████╗ ██████╗ ███╗   ███╗██████╗  ██████╗ ███╗   ██╗███████╗███╗   ██╗████████╗██████╗ ██████╗
██╔════╝██╔═══██╗████╗ ████║██╔══██╗██╔═══██╗████╗  ██║██╔════╝████╗  ██║╚══██╔══╝██╔══██╗██╔══██╗
██║     ██║   ██║██╔████╔██║██████╔╝██║   ██║██╔██╗ ██║█████╗  ██╔██╗ ██║   ██║   ██║  ██║██████╔╝
██║     ██║   ██║██║╚██╔╝██║██╔═══╝ ██║   ██║██║╚██╗██║██╔══╝  ██║╚██╗██║   ██║   ██║  ██║██╔══██╗
╚██████╗╚██████╔╝██║ ╚═╝ ██║██║     ╚██████╔╝██║ ╚████║███████╗██║ ╚████║   ██║   ██████╔╝██████╔╝
 ╚═════╝ ╚═════╝ ╚═╝     ╚═╝╚═╝      ╚═════╝ ╚═╝  ╚═══╝╚══════╝╚═╝  ╚═══╝   ╚═╝   ╚═════╝ ╚═════╝
`

// Print writes the startup banner and a short operator summary.
func Print(addr, dbPath, sources, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if sources != "" {
		fmt.Printf("Config sources: %s\n", sources)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/threads - Create a thread (idempotent)")
	fmt.Println("GET  /v1/threads/{id}/messages - Read a transcript")
	fmt.Println("POST /v1/threads/{id}/messages - Append a message")
	fmt.Println("POST /v1/threads/{id}/messages/{msg}/input - Merge a component value")
	fmt.Println("POST /v1/threads/{id}/turns - Run an agent turn")
	fmt.Println("GET  /v1/components/tools - Component tool surface")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/v1/threads' -d '{\"title\": \"demo\"}'\n", addr)
	fmt.Printf("curl 'http://localhost%s/v1/threads/t1/messages?limit=10'\n", addr)
	fmt.Println("\n== Production? =================================================")
	fmt.Println("Set a proper storage path (--db)")
	fmt.Println("Configure API keys before exposing the service")
}
