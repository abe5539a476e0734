package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/bashchat/bashchatd/internal/ctl"
	"github.com/bashchat/bashchatd/internal/session"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	c := ctl.New(session.SocketPath(sessionName))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[0] {
	case "status":
		cmdStatus(ctx, c, *jsonFlag)
	case "signin":
		requireArgs(args, 3, "bashchatctl signin <username> <password>")
		cmdSignIn(ctx, c, args[1], args[2])
	case "signup":
		requireArgs(args, 5, "bashchatctl signup <username> <first> <last> <password>")
		cmdSignUp(ctx, c, args[1], args[2], args[3], args[4])
	case "logout":
		cmdPost(ctx, c, "/api/logout", nil, "logged out")
	case "connect":
		cmdPost(ctx, c, "/api/connect", nil, "connecting")
	case "disconnect":
		cmdPost(ctx, c, "/api/disconnect", nil, "disconnected")
	case "friends":
		cmdFriends(ctx, c, *jsonFlag)
	case "requests":
		cmdRequests(ctx, c, *jsonFlag)
	case "accept":
		requireArgs(args, 2, "bashchatctl accept <username>")
		cmdPost(ctx, c, "/api/requests/accept", map[string]string{"username": args[1]}, "request accepted")
	case "request":
		requireArgs(args, 2, "bashchatctl request <username>")
		cmdPost(ctx, c, "/api/requests/connect", map[string]string{"username": args[1]}, "request sent")
	case "search":
		requireArgs(args, 2, "bashchatctl search <query>")
		cmdSearch(ctx, c, args[1], *jsonFlag)
	case "open":
		requireArgs(args, 2, "bashchatctl open <connection-id|username>")
		cmdOpen(ctx, c, args[1])
	case "more":
		cmdPost(ctx, c, "/api/messages/more", nil, "loading more")
	case "messages":
		cmdMessages(ctx, c, *jsonFlag)
	case "send":
		requireArgs(args, 3, "bashchatctl send <connection-id> <text>")
		cmdSend(ctx, c, args[1], args[2])
	case "delete":
		requireArgs(args, 3, "bashchatctl delete <connection-id> <message-id>...")
		cmdDelete(ctx, c, args[1], args[2:])
	case "forward":
		requireArgs(args, 4, "bashchatctl forward <from-id> <to-id> <message-id>...")
		cmdForward(ctx, c, args[1], args[2], args[3:])
	case "typing":
		requireArgs(args, 2, "bashchatctl typing <username>")
		cmdPost(ctx, c, "/api/typing", map[string]string{"username": args[1]}, "typing sent")
	case "seen":
		requireArgs(args, 3, "bashchatctl seen <connection-id> <message-id>")
		cmdSeen(ctx, c, args[1], args[2])
	case "history":
		requireArgs(args, 2, "bashchatctl history <connection-id>")
		cmdHistory(ctx, c, args[1], *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: bashchatctl [--session <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                          Show daemon and connection status")
	fmt.Fprintln(os.Stderr, "  signin <user> <pass>            Sign in")
	fmt.Fprintln(os.Stderr, "  signup <user> <first> <last> <pass>  Create an account")
	fmt.Fprintln(os.Stderr, "  logout                          Sign out and wipe credentials")
	fmt.Fprintln(os.Stderr, "  connect / disconnect            Open or close the chat socket")
	fmt.Fprintln(os.Stderr, "  friends                         List conversations")
	fmt.Fprintln(os.Stderr, "  requests                        List pending connection requests")
	fmt.Fprintln(os.Stderr, "  accept <user>                   Accept a connection request")
	fmt.Fprintln(os.Stderr, "  request <user>                  Send a connection request")
	fmt.Fprintln(os.Stderr, "  search <query>                  Search users")
	fmt.Fprintln(os.Stderr, "  open <id|user>                  Open a conversation")
	fmt.Fprintln(os.Stderr, "  more                            Load older messages")
	fmt.Fprintln(os.Stderr, "  messages                        Show the open conversation")
	fmt.Fprintln(os.Stderr, "  send <id> <text>                Send a message")
	fmt.Fprintln(os.Stderr, "  delete <id> <msg-id>...         Delete messages")
	fmt.Fprintln(os.Stderr, "  forward <from> <to> <msg-id>... Forward messages")
	fmt.Fprintln(os.Stderr, "  typing <user>                   Send a typing notice")
	fmt.Fprintln(os.Stderr, "  seen <id> <msg-id>              Mark a message seen")
	fmt.Fprintln(os.Stderr, "  history <id>                    Show cached history (works offline)")
}

func requireArgs(args []string, n int, usage string) {
	if len(args) < n {
		fmt.Fprintf(os.Stderr, "usage: %s\n", usage)
		os.Exit(1)
	}
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %q is not a numeric id\n", s)
		os.Exit(1)
	}
	return id
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func cmdStatus(ctx context.Context, c *ctl.Client, jsonOut bool) {
	resp, err := c.Get(ctx, "/api/status", nil)
	if err != nil {
		fail(err)
	}
	var data struct {
		Connection string `json:"connection"`
		Username   string `json:"username"`
		Name       string `json:"name"`
	}
	if err := resp.Decode(&data); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(data)
		return
	}
	fmt.Printf("Connection: %s\n", data.Connection)
	if data.Username != "" {
		fmt.Printf("Account:    %s (%s)\n", data.Username, data.Name)
	} else {
		fmt.Println("Account:    signed out")
	}
}

func cmdSignIn(ctx context.Context, c *ctl.Client, username, password string) {
	_, err := c.Post(ctx, "/api/signin", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		fail(err)
	}
	fmt.Printf("Signed in as %s\n", username)
}

func cmdSignUp(ctx context.Context, c *ctl.Client, username, first, last, password string) {
	_, err := c.Post(ctx, "/api/signup", map[string]string{
		"username":   username,
		"first_name": first,
		"last_name":  last,
		"password":   password,
	})
	if err != nil {
		fail(err)
	}
	fmt.Printf("Account %s created and signed in\n", username)
}

func cmdPost(ctx context.Context, c *ctl.Client, path string, body any, okMsg string) {
	if _, err := c.Post(ctx, path, body); err != nil {
		fail(err)
	}
	fmt.Println(okMsg)
}

func cmdFriends(ctx context.Context, c *ctl.Client, jsonOut bool) {
	resp, err := c.Get(ctx, "/api/friends", nil)
	if err != nil {
		fail(err)
	}
	var data struct {
		Loaded  bool              `json:"loaded"`
		Friends []json.RawMessage `json:"friends"`
	}
	if err := resp.Decode(&data); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(data)
		return
	}
	if len(data.Friends) == 0 {
		fmt.Println("No conversations.")
		return
	}
	if !data.Loaded {
		fmt.Println("(cached, not yet refreshed from server)")
	}
	for _, raw := range data.Friends {
		var row struct {
			ID     int64 `json:"id"`
			Friend struct {
				Username string `json:"username"`
				Name     string `json:"name"`
			} `json:"friend"`
			// Cached rows are flat.
			ConnectionID int64  `json:"connection_id"`
			Username     string `json:"username"`
			Preview      string `json:"preview"`
		}
		if err := json.Unmarshal(raw, &row); err != nil {
			continue
		}
		id, username := row.ID, row.Friend.Username
		if id == 0 {
			id, username = row.ConnectionID, row.Username
		}
		fmt.Printf("%-8d %-20s %s\n", id, username, row.Preview)
	}
}

func cmdRequests(ctx context.Context, c *ctl.Client, jsonOut bool) {
	resp, err := c.Get(ctx, "/api/requests", nil)
	if err != nil {
		fail(err)
	}
	var data struct {
		Loaded   bool `json:"loaded"`
		Requests []struct {
			ID     int64 `json:"id"`
			Sender struct {
				Username string `json:"username"`
				Name     string `json:"name"`
			} `json:"sender"`
			Created string `json:"created"`
		} `json:"requests"`
	}
	if err := resp.Decode(&data); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(data)
		return
	}
	if len(data.Requests) == 0 {
		fmt.Println("No pending requests.")
		return
	}
	for _, r := range data.Requests {
		fmt.Printf("%-20s %-24s %s\n", r.Sender.Username, r.Sender.Name, r.Created)
	}
}

func cmdSearch(ctx context.Context, c *ctl.Client, query string, jsonOut bool) {
	q := url.Values{}
	q.Set("q", query)
	resp, err := c.Get(ctx, "/api/search", q)
	if err != nil {
		fail(err)
	}
	var data struct {
		Active  bool `json:"active"`
		Results []struct {
			Username string `json:"username"`
			Name     string `json:"name"`
			Status   string `json:"status"`
		} `json:"results"`
	}
	if err := resp.Decode(&data); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(data)
		return
	}
	// Results arrive asynchronously over the socket; show whatever the
	// daemon has projected so far.
	if len(data.Results) == 0 {
		fmt.Println("No results yet. Run the search again in a moment.")
		return
	}
	for _, r := range data.Results {
		fmt.Printf("%-20s %-24s %s\n", r.Username, r.Name, r.Status)
	}
}

func cmdOpen(ctx context.Context, c *ctl.Client, target string) {
	body := map[string]any{}
	if id, err := strconv.ParseInt(target, 10, 64); err == nil {
		body["connection_id"] = id
	} else {
		body["username"] = target
	}
	if _, err := c.Post(ctx, "/api/messages/open", body); err != nil {
		fail(err)
	}
	fmt.Printf("Opened conversation %s\n", target)
}

func cmdMessages(ctx context.Context, c *ctl.Client, jsonOut bool) {
	resp, err := c.Get(ctx, "/api/messages", nil)
	if err != nil {
		fail(err)
	}
	var data struct {
		ConnectionID int64  `json:"connection_id"`
		Username     string `json:"username"`
		Typing       bool   `json:"typing"`
		Sections     []struct {
			Title    string `json:"title"`
			Messages []struct {
				ID      int64  `json:"id"`
				IsMe    bool   `json:"is_me"`
				Text    string `json:"text"`
				Created string `json:"created"`
				Seen    bool   `json:"seen"`
			} `json:"messages"`
		} `json:"sections"`
	}
	if err := resp.Decode(&data); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(data)
		return
	}
	fmt.Printf("Conversation with %s (connection %d)\n", data.Username, data.ConnectionID)
	if data.Typing {
		fmt.Printf("%s is typing...\n", data.Username)
	}
	for _, section := range data.Sections {
		fmt.Printf("-- %s --\n", section.Title)
		for _, m := range section.Messages {
			who := data.Username
			if m.IsMe {
				who = "me"
			}
			fmt.Printf("  [%d] %-12s %s\n", m.ID, who+":", m.Text)
		}
	}
}

func cmdSend(ctx context.Context, c *ctl.Client, idArg, text string) {
	_, err := c.Post(ctx, "/api/send", map[string]any{
		"connection_id": parseID(idArg),
		"text":          text,
	})
	if err != nil {
		fail(err)
	}
	fmt.Println("sent")
}

func cmdForward(ctx context.Context, c *ctl.Client, fromArg, toArg string, msgIDs []string) {
	ids := make([]int64, 0, len(msgIDs))
	for _, s := range msgIDs {
		ids = append(ids, parseID(s))
	}
	_, err := c.Post(ctx, "/api/forward", map[string]any{
		"from_connection_id": parseID(fromArg),
		"to_connection_id":   parseID(toArg),
		"ids":                ids,
	})
	if err != nil {
		fail(err)
	}
	fmt.Println("forwarded")
}

func cmdDelete(ctx context.Context, c *ctl.Client, idArg string, msgIDs []string) {
	ids := make([]int64, 0, len(msgIDs))
	for _, s := range msgIDs {
		ids = append(ids, parseID(s))
	}
	_, err := c.Post(ctx, "/api/delete", map[string]any{
		"connection_id": parseID(idArg),
		"ids":           ids,
	})
	if err != nil {
		fail(err)
	}
	fmt.Printf("deleted %d message(s)\n", len(ids))
}

func cmdSeen(ctx context.Context, c *ctl.Client, idArg, msgIDArg string) {
	_, err := c.Post(ctx, "/api/seen", map[string]any{
		"connection_id": parseID(idArg),
		"message_id":    parseID(msgIDArg),
	})
	if err != nil {
		fail(err)
	}
	fmt.Println("seen")
}

func cmdHistory(ctx context.Context, c *ctl.Client, idArg string, jsonOut bool) {
	resp, err := c.Get(ctx, "/api/history", ctl.IntQuery("connection_id", parseID(idArg)))
	if err != nil {
		fail(err)
	}
	var msgs []struct {
		ID      int64  `json:"id"`
		IsMe    bool   `json:"is_me"`
		Text    string `json:"text"`
		Created string `json:"created"`
	}
	if err := resp.Decode(&msgs); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(msgs)
		return
	}
	if len(msgs) == 0 {
		fmt.Println("No cached messages.")
		return
	}
	for _, m := range msgs {
		who := "them"
		if m.IsMe {
			who = "me"
		}
		fmt.Printf("[%d] %-6s %s\n", m.ID, who+":", m.Text)
	}
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
