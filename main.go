package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"llm-chat-studio/chat"
	"llm-chat-studio/db"
	"llm-chat-studio/llm"
	"llm-chat-studio/session"
	"llm-chat-studio/store"
	"llm-chat-studio/utils"
)

var (
	version = "0.1.0"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	mode := flag.String("mode", session.ModeDefault, "Behavior profile to start with")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("LLM Chat Studio v%s\n", version)
		os.Exit(0)
	}

	logger, err := utils.NewLogger(utils.GetLogPath())
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Info("Starting LLM Chat Studio v%s", version)

	var config *utils.Config
	actualConfigPath := *configPath
	if actualConfigPath == "" {
		actualConfigPath, err = utils.EnsureDefaultConfig()
		if err != nil {
			logger.Error("Failed to create default config: %v", err)
			os.Exit(1)
		}
	}
	config, err = utils.LoadConfig(actualConfigPath)
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}
	logger.Info("Using config file: %s", actualConfigPath)

	images, err := store.NewImageStore(config.Data.UploadedImagesDir())
	if err != nil {
		logger.Error("Failed to initialize image store: %v", err)
		os.Exit(1)
	}
	threads, err := store.NewThreadStore(config.Data.ThreadsDir(), images, logger)
	if err != nil {
		logger.Error("Failed to initialize thread store: %v", err)
		os.Exit(1)
	}
	ledger, err := store.NewLedger(config.Data.GeneratedImagesDir(), config.Data.InpaintingImagesDir(), logger)
	if err != nil {
		logger.Error("Failed to initialize generation ledger: %v", err)
		os.Exit(1)
	}

	index, err := db.New(config.Data.DBPath)
	if err != nil {
		logger.Error("Failed to initialize message index: %v", err)
		os.Exit(1)
	}
	defer index.Close()

	provider, err := llm.NewOpenAIProvider(llm.Config{
		APIKey:      config.Provider.APIKey,
		BaseURL:     config.Provider.BaseURL,
		Model:       config.Provider.Model,
		ImageModel:  config.Provider.ImageModel,
		EditModel:   config.Provider.EditModel,
		MaxTokens:   config.Provider.MaxTokens,
		Temperature: config.Provider.Temperature,
	}, images.Get)
	if err != nil {
		logger.Error("Failed to initialize provider: %v", err)
		os.Exit(1)
	}

	sess := session.New(session.Options{
		Threads:  threads,
		Images:   images,
		Ledger:   ledger,
		Index:    index,
		Provider: provider,
		Uploads:  utils.NewUploadPipeline(images),
		Logger:   logger,
		Mode:     *mode,
		Modes:    config.Modes,
		Model:    config.Provider.Model,
		Image: llm.ImageOptions{
			Size:    config.Image.Size,
			Quality: config.Image.Quality,
			Count:   config.Image.Count,
		},
	})

	logger.Info("Session ready (mode: %s)", sess.Mode())
	r := &repl{sess: sess, images: images, logger: logger}
	r.run()
	logger.Info("Session ended")
}

// repl is the interactive command surface over one session
type repl struct {
	sess   *session.Session
	images *store.ImageStore
	logger *utils.Logger

	pendingFiles []utils.UploadedFile
}

// run reads prompts and commands from stdin until EOF or /quit
func (r *repl) run() {
	fmt.Printf("LLM Chat Studio v%s - type /help for commands\n", version)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			r.logger.Debug("Command: %s", line)
			if quit := r.runCommand(line); quit {
				return
			}
			continue
		}

		_, err := r.sess.Send(context.Background(), line, r.pendingFiles, func(chunk string) {
			fmt.Print(chunk)
		})
		r.pendingFiles = nil
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Println()
	}
}

func (r *repl) runCommand(line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Println(`Commands:
  /new                     start a new thread
  /list                    list threads, newest first
  /open <id>               switch to a thread and show it
  /delete <id>             delete a thread and its attachments
  /attach <path>           attach a file to the next prompt
  /mode <name>             switch behavior profile
  /export <id> <format>    export a thread (txt, json, md, csv)
  /search <query>          full-text search across threads
  /image <prompt>          generate images
  /inpaint <path> <x0> <y0> <x1> <y1> <prompt>
                           repaint a rectangle of an image
  /history                 list past generations and inpaintings
  /hdelete <id>            delete a history entry and its artifacts
  /stats                   token usage for the last 30 days
  /vacuum                  compact the search index
  /quit                    exit`)

	case "/new":
		thread, err := r.sess.NewThread()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		fmt.Printf("New thread %s\n", thread.ID)

	case "/list":
		threads, err := r.sess.Threads()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		for _, t := range threads {
			fmt.Printf("%s  %s  %s\n", t.ID, t.LastUpdated.Format("2006-01-02 15:04"), t.Preview())
		}

	case "/open":
		if len(args) != 1 {
			fmt.Println("Usage: /open <id>")
			break
		}
		if err := r.sess.SelectThread(args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		r.showThread(r.sess.CurrentThread())

	case "/delete":
		if len(args) != 1 {
			fmt.Println("Usage: /delete <id>")
			break
		}
		if err := r.sess.DeleteThread(args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		fmt.Println("Deleted")

	case "/attach":
		if len(args) != 1 {
			fmt.Println("Usage: /attach <path>")
			break
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		r.pendingFiles = append(r.pendingFiles, utils.UploadedFile{
			Name: filepath.Base(args[0]),
			Data: data,
		})
		fmt.Printf("Attached %s (%d bytes)\n", args[0], len(data))

	case "/mode":
		if len(args) == 0 {
			fmt.Printf("Current mode: %s\n", r.sess.Mode())
			break
		}
		r.sess.SetMode(strings.Join(args, " "))
		fmt.Printf("Mode set to %s\n", r.sess.Mode())

	case "/export":
		if len(args) != 2 {
			fmt.Println("Usage: /export <id> <format>")
			break
		}
		content, filename, err := r.sess.Export(args[0], utils.ExportFormat(args[1]))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		if err := os.WriteFile(filename, content, 0644); err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		fmt.Printf("Exported to %s\n", filename)

	case "/search":
		if len(args) == 0 {
			fmt.Println("Usage: /search <query>")
			break
		}
		results, err := r.sess.Search(strings.Join(args, " "), 10)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		for _, res := range results {
			fmt.Printf("%s [%s] %s\n", res.ThreadID, res.Message.Role, res.Snippet)
		}

	case "/image":
		if len(args) == 0 {
			fmt.Println("Usage: /image <prompt>")
			break
		}
		record, err := r.sess.GenerateImages(context.Background(), strings.Join(args, " "), session.ModifierSelection{}, llm.ImageOptions{})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		fmt.Printf("Generation %s:\n", record.ID)
		for _, path := range record.ImagePaths {
			fmt.Printf("  %s\n", path)
		}

	case "/inpaint":
		if len(args) < 6 {
			fmt.Println("Usage: /inpaint <path> <x0> <y0> <x1> <y1> <prompt>")
			break
		}
		original, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		selection, err := parseRect(args[1:5])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		record, err := r.sess.Inpaint(context.Background(), original, selection, strings.Join(args[5:], " "), llm.ImageOptions{})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		fmt.Printf("Inpainting %s:\n  %s\n", record.ID, record.InpaintedImagePath)

	case "/history":
		generations, err := r.sess.Generations()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		for _, rec := range generations {
			fmt.Printf("%s  %s  %d image(s)  %q\n", rec.ID, rec.Timestamp.Format("2006-01-02 15:04"), len(rec.ImagePaths), rec.Prompt)
		}
		inpaintings, err := r.sess.Inpaintings()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		for _, rec := range inpaintings {
			fmt.Printf("%s  %s  inpainting  %q\n", rec.ID, rec.Timestamp.Format("2006-01-02 15:04"), rec.Prompt)
		}

	case "/hdelete":
		if len(args) != 1 {
			fmt.Println("Usage: /hdelete <id>")
			break
		}
		// The id lives in one ledger at most; deletes are idempotent
		if err := r.sess.DeleteGeneration(args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		if err := r.sess.DeleteInpainting(args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		fmt.Println("Deleted")

	case "/stats":
		stats, err := r.sess.Usage(time.Now().AddDate(0, 0, -30), time.Now())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		fmt.Printf("Messages: %d, tokens: %d\n", stats.TotalMessages, stats.TotalTokens)
		for model, m := range stats.ModelStats {
			fmt.Printf("  %-20s %8d tokens  ~$%.4f\n", model, m.TotalTokens, m.EstimatedCost)
		}

	case "/vacuum":
		if err := r.sess.CompactIndex(); err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		fmt.Println("Index compacted")

	default:
		fmt.Printf("Unknown command %s - type /help\n", cmd)
	}
	return false
}

// showThread prints every turn of a thread through the display contract
func (r *repl) showThread(thread *store.Thread) {
	if thread == nil {
		return
	}
	fmt.Printf("Thread %s (%d message(s))\n", thread.ID, len(thread.Messages))
	for _, msg := range thread.Messages {
		fmt.Printf("[%s]\n", strings.ToUpper(string(msg.Role)))
		for _, inst := range chat.Render(msg.Content, r.images.Path) {
			switch inst.Kind {
			case chat.ShowText:
				fmt.Println(inst.Text)
			case chat.ShowImage:
				fmt.Printf("[Image: %s -> %s]\n", inst.Caption, inst.ImagePath)
			}
		}
	}
}

func parseRect(args []string) (image.Rectangle, error) {
	coords := make([]int, 4)
	for i, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid coordinate %q", arg)
		}
		coords[i] = n
	}
	return image.Rect(coords[0], coords[1], coords[2], coords[3]), nil
}
