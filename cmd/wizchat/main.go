// Command wizchat is the terminal chat client. It signs in against the auth
// service, keeps projects and conversations on local disk, and talks to the
// chat proxy through the send pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/peterh/liner"

	"wizdomai/internal/authclient"
	"wizdomai/internal/util"
	"wizdomai/pkg/chat"
	"wizdomai/pkg/chatstore"
	"wizdomai/pkg/domain"
)

func main() {
	_ = godotenv.Load()
	util.InitLogger(envOr("LOG_LEVEL", "warn"))

	authURL := envOr("WIZCHAT_AUTH_URL", "http://localhost:8081")
	chatURL := envOr("WIZCHAT_CHAT_URL", "http://localhost:8080")
	dataDir := envOr("WIZCHAT_DATA_DIR", defaultDataDir())

	persister, err := chatstore.NewFilePersister(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()
	loadHistory(line, dataDir)
	defer saveHistory(line, dataDir)

	auth := authclient.NewClient(authURL)
	session, err := signIn(line, auth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = auth.Logout(session.Token) }()

	store := chatstore.New(persister)
	pipeline := chat.NewPipeline(store, chat.NewClient(chatURL))

	fmt.Printf("Signed in as %s. Type a message, or /help for commands.\n", session.User.Email)
	repl(line, store, pipeline)
}

func repl(line *liner.State, store *chatstore.Store, pipeline *chat.Pipeline) {
	for {
		input, err := line.Prompt("wizdom> ")
		if err != nil {
			// Ctrl+C or Ctrl+D ends the session.
			fmt.Println()
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if !runCommand(input, store) {
				return
			}
			continue
		}

		if err := pipeline.Send(context.Background(), input); err != nil {
			fmt.Fprintf(os.Stderr, "[error] %v\n", err)
		}
		printLatestReply(store)
	}
}

func runCommand(input string, store *chatstore.Store) bool {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help", "/h":
		printHelp()
	case "/project", "/p":
		handleProject(store, args)
	case "/new", "/n":
		store.CreateConversation()
		fmt.Println("[new conversation]")
	case "/list", "/l":
		handleList(store, args)
	case "/delete", "/d":
		handleDelete(store, args)
	case "/clear":
		store.ClearAllConversations()
		fmt.Println("[all conversations cleared]")
	case "/quit", "/q", "/exit":
		return false
	default:
		fmt.Printf("unknown command %s (type /help)\n", cmd)
	}
	return true
}

func handleProject(store *chatstore.Store, args []string) {
	if len(args) == 0 {
		current := store.CurrentProjectID()
		for i, proj := range store.Projects() {
			marker := " "
			if proj.ID == current {
				marker = "*"
			}
			fmt.Printf("%s %d. %s (%d conversations)\n", marker, i+1, proj.Name, len(proj.Conversations))
		}
		return
	}
	if n, err := strconv.Atoi(args[0]); err == nil {
		projects := store.Projects()
		if n < 1 || n > len(projects) {
			fmt.Println("no such project")
			return
		}
		store.SelectProject(projects[n-1].ID)
		fmt.Printf("[switched to %s]\n", projects[n-1].Name)
		return
	}
	name := strings.Join(args, " ")
	store.CreateProject(name)
	fmt.Printf("[created project %s]\n", name)
}

func handleList(store *chatstore.Store, args []string) {
	proj, ok := store.CurrentProject()
	if !ok {
		fmt.Println("no current project")
		return
	}
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > len(proj.Conversations) {
			fmt.Println("no such conversation")
			return
		}
		store.SelectConversation(proj.Conversations[n-1].ID)
		fmt.Printf("[switched to %s]\n", proj.Conversations[n-1].Title)
		return
	}
	if len(proj.Conversations) == 0 {
		fmt.Println("[no conversations yet]")
		return
	}
	current := store.CurrentConversationID()
	for i, conv := range proj.Conversations {
		marker := " "
		if conv.ID == current {
			marker = "*"
		}
		fmt.Printf("%s %d. %s  (%s)\n", marker, i+1, conv.Title, conv.Preview)
	}
}

func handleDelete(store *chatstore.Store, args []string) {
	proj, ok := store.CurrentProject()
	if !ok {
		fmt.Println("no current project")
		return
	}
	id := store.CurrentConversationID()
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > len(proj.Conversations) {
			fmt.Println("no such conversation")
			return
		}
		id = proj.Conversations[n-1].ID
	}
	if id == "" {
		fmt.Println("no conversation selected")
		return
	}
	store.DeleteConversation(id)
	fmt.Println("[conversation deleted]")
}

func printLatestReply(store *chatstore.Store) {
	conv, ok := store.Conversation(store.CurrentConversationID())
	if !ok || len(conv.Messages) == 0 {
		return
	}
	last := conv.Messages[len(conv.Messages)-1]
	if !last.IsUser {
		fmt.Printf("\n%s\n\n", last.Text)
	}
}

func signIn(line *liner.State, auth *authclient.Client) (domain.Session, error) {
	for {
		email, err := line.Prompt("email: ")
		if err != nil {
			return domain.Session{}, errors.New("sign-in aborted")
		}
		password, err := line.PasswordPrompt("password: ")
		if err != nil {
			return domain.Session{}, errors.New("sign-in aborted")
		}

		session, err := auth.Login(strings.TrimSpace(email), password)
		if err == nil {
			return session, nil
		}
		var apiErr *authclient.APIError
		if !errors.As(err, &apiErr) {
			return domain.Session{}, fmt.Errorf("auth service unreachable: %w", err)
		}
		if apiErr.Status != http.StatusUnauthorized {
			fmt.Fprintf(os.Stderr, "[error] %s\n", apiErr.Message)
			continue
		}

		answer, err := line.Prompt("no such account or wrong password; sign up with these credentials? [y/N] ")
		if err != nil {
			return domain.Session{}, errors.New("sign-in aborted")
		}
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			continue
		}
		session, err = auth.SignUp(strings.TrimSpace(email), password, nil)
		if err == nil {
			return session, nil
		}
		fmt.Fprintf(os.Stderr, "[error] %v\n", err)
	}
}

func printHelp() {
	fmt.Println(`commands:
  /project            list projects (* marks current)
  /project <n>        switch to project n
  /project <name>     create a project
  /new                start a new conversation
  /list               list conversations in the current project
  /list <n>           switch to conversation n
  /delete [n]         delete the current (or nth) conversation
  /clear              delete every conversation in the current project
  /quit               exit`)
}

func loadHistory(line *liner.State, dataDir string) {
	if f, err := os.Open(filepath.Join(dataDir, "history")); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
}

func saveHistory(line *liner.State, dataDir string) {
	f, err := os.OpenFile(filepath.Join(dataDir, "history"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.WriteHistory(f)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wizchat"
	}
	return filepath.Join(home, ".wizchat")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
