package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"levelup/internal/api"
	"levelup/internal/chat"
	"levelup/internal/config"
	"levelup/internal/game"
	"levelup/internal/models"
	"levelup/internal/pkg/logger"
	"levelup/internal/session"
)

// hintCost is the hint-point price of revealing a hint.
const hintCost = 10

// repl is the interactive terminal front end. It only formats and dispatches;
// all game and session logic lives in the SDK packages.
type repl struct {
	api  *api.Client
	sess *session.Session
	log  *logger.Logger

	in   *bufio.Scanner
	chat *chat.Client
}

func newRepl(client *api.Client, sess *session.Session, l *logger.Logger) *repl {
	return &repl{
		api:  client,
		sess: sess,
		log:  l,
		in:   bufio.NewScanner(os.Stdin),
	}
}

// run executes the command loop until EOF or quit.
func (r *repl) run(ctx context.Context) {
	fmt.Println("levelup — type 'help' for commands")
	for {
		fmt.Print("> ")
		if !r.in.Scan() {
			return
		}
		fields := strings.Fields(r.in.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			r.printHelp()
		case "register":
			r.register(ctx)
		case "login":
			r.login(ctx)
		case "resume":
			if err := r.sess.Resume(ctx); err != nil {
				fmt.Println("resume failed:", err)
			} else {
				fmt.Println("welcome back,", r.sess.Identity().Username)
			}
		case "logout":
			r.sess.Logout(ctx)
			fmt.Println("logged out")
		case "play":
			r.play(ctx)
		case "profile":
			r.printProfile()
		case "leaderboard":
			r.printLeaderboard(ctx, fields)
		case "rank":
			r.printRank(ctx)
		case "wrong":
			r.printWrongAnswers()
		case "transactions":
			r.printTransactions()
		case "buy":
			r.buyHintPoints(ctx, fields)
		case "chat":
			r.chatLoop(ctx)
		case "survey":
			r.survey(ctx)
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command, type 'help'")
		}
	}
}

func (r *repl) printHelp() {
	fmt.Println(`commands:
  register            create an account
  login               log in
  resume              restore the previous session
  logout              log out
  play                start or continue the quiz
  profile             show the cached profile
  leaderboard [period] show the leaderboard (global/weekly/monthly)
  rank                show your global rank
  wrong               review your wrong answers
  transactions        list your hint-point purchases
  buy <package>       request a hint-point package
  chat                join the chat room
  survey              rate the game
  quit                exit`)
}

func (r *repl) prompt(label string) string {
	fmt.Print(label)
	if !r.in.Scan() {
		return ""
	}
	return strings.TrimSpace(r.in.Text())
}

func (r *repl) register(ctx context.Context) {
	req := models.RegisterRequest{
		Username: r.prompt("username: "),
		Email:    r.prompt("email: "),
		Password: r.prompt("password: "),
	}
	if err := r.api.Register(ctx, req); err != nil {
		fmt.Println("registration failed:", err)
		return
	}
	fmt.Println("account created, now log in")
}

func (r *repl) login(ctx context.Context) {
	username := r.prompt("username: ")
	password := r.prompt("password: ")
	if err := r.sess.Login(ctx, username, password); err != nil {
		fmt.Println("login failed:", err)
		return
	}
	fmt.Println("welcome,", r.sess.Identity().Username)
}

// play runs the quiz loop over the level catalog.
func (r *repl) play(ctx context.Context) {
	levels, err := r.api.Levels(ctx)
	if err != nil {
		fmt.Println("failed to load levels:", err)
		return
	}
	if len(levels) == 0 {
		fmt.Println("no levels available")
		return
	}

	events := make(chan game.Event, 16)
	engine := game.NewEngine(levels, r.sess, func(ev game.Event) { events <- ev }, r.log)
	if err := engine.Start(); err != nil {
		fmt.Println(err)
		return
	}

	for {
		switch engine.Phase() {
		case game.PhaseCompleted:
			fmt.Println("🏁 You have completed every level. Use /restart to play again or /quit to leave.")
			if !r.completedPrompt(engine) {
				return
			}
		case game.PhaseAnswering:
			if !r.answerPrompt(ctx, engine, events) {
				return
			}
		case game.PhaseExplanation:
			if !r.explanationPrompt(engine) {
				return
			}
		default:
			return
		}
	}
}

// answerPrompt shows the current question and handles one input line. It
// returns false when the player quits.
func (r *repl) answerPrompt(ctx context.Context, engine *game.Engine, events chan game.Event) bool {
	level, ok := engine.CurrentLevel()
	if !ok {
		return true
	}

	fmt.Printf("\nLevel %d — %s\n%s\n", engine.LevelIndex()+1, level.Category, level.Question)
	for i, opt := range level.Options {
		fmt.Printf("  %d) %s\n", i+1, opt)
	}

	input := r.prompt("answer (/hint, /jump N, /restart, /quit): ")
	switch {
	case input == "/quit":
		return false
	case input == "/restart":
		engine.Restart()
		return true
	case input == "/hint":
		r.showHint(engine, level)
		return true
	case strings.HasPrefix(input, "/jump "):
		n, err := strconv.Atoi(strings.TrimPrefix(input, "/jump "))
		if err != nil {
			fmt.Println("usage: /jump <level number>")
			return true
		}
		if err := engine.SelectLevel(n - 1); err != nil {
			fmt.Println("cannot jump:", err)
		}
		return true
	case input == "":
		return true
	}

	// Numbered input selects an option.
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(level.Options) {
		input = level.Options[n-1]
	}

	correct, err := engine.SubmitAnswer(input)
	if err != nil {
		fmt.Println(err)
		return true
	}
	fmt.Println(engine.Mark())
	r.drainEvents(events, correct)
	return true
}

// drainEvents prints engine notifications until the delayed transition fires.
func (r *repl) drainEvents(events chan game.Event, waitForExplanation bool) {
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			switch ev.Type {
			case game.EventStreakCelebration:
				fmt.Println(ev.Message)
			case game.EventSecretUnlocked:
				fmt.Println("🗝️ You found the secret! Ten perfect streaks in a row!")
			case game.EventAchievementUnlocked:
				fmt.Printf("🏅 Achievement unlocked: %s (+%d points)\n", ev.AchievementName, ev.Points)
			case game.EventExplanationReady:
				return
			case game.EventCatalogCompleted:
				return
			}
		case <-deadline:
			if !waitForExplanation {
				return
			}
			waitForExplanation = false
		}
	}
}

func (r *repl) explanationPrompt(engine *game.Engine) bool {
	level, ok := engine.CompletedLevel()
	if ok {
		fmt.Println("\n✅ Correct!")
		fmt.Println("explanation:", level.Explanation)
	}
	input := r.prompt("press enter for the next level (/quit to leave): ")
	if input == "/quit" {
		return false
	}
	if err := engine.AdvanceToNextLevel(); err != nil {
		fmt.Println(err)
	}
	return true
}

func (r *repl) completedPrompt(engine *game.Engine) bool {
	input := r.prompt("> ")
	switch input {
	case "/restart":
		engine.Restart()
		return true
	case "/quit", "":
		return false
	default:
		return true
	}
}

// showHint reveals the hint, charging hint points the first time.
func (r *repl) showHint(engine *game.Engine, level models.Level) {
	if err := r.sess.SpendHintPoints(engine.LevelIndex(), hintCost); err != nil {
		fmt.Println("hint unavailable:", err)
		return
	}
	fmt.Println("hint:", level.Hint)
}

func (r *repl) printProfile() {
	if !r.sess.Authenticated() {
		fmt.Println("not logged in")
		return
	}
	p := r.sess.Profile()
	fmt.Printf("%s — level %d, %d points, %d hint points\n", p.Username, p.MaxLevel, p.TotalPoints, p.HintPoints)
	fmt.Printf("daily streak %d (longest %d)\n", p.CurrentStreak, p.LongestStreak)
	if len(p.Achievements) > 0 {
		fmt.Println("achievements:", strings.Join(p.Achievements, ", "))
	}
}

func (r *repl) printLeaderboard(ctx context.Context, fields []string) {
	period := api.PeriodGlobal
	if len(fields) > 1 {
		period = fields[1]
	}
	entries, err := r.api.Leaderboard(ctx, period)
	if err != nil {
		fmt.Println("failed to load leaderboard:", err)
		return
	}
	for _, e := range entries {
		fmt.Printf("%3d. %-20s %6d pts  level %d\n", e.Rank, e.Username, e.TotalPoints, e.MaxLevel)
	}
}

func (r *repl) printRank(ctx context.Context) {
	if !r.sess.Authenticated() {
		fmt.Println("not logged in")
		return
	}
	ranking, err := r.api.Ranking(ctx, r.sess.Identity().Username)
	if err != nil {
		fmt.Println("failed to load ranking:", err)
		return
	}
	fmt.Printf("#%d with %d points\n", ranking.Rank, ranking.TotalPoints)
}

func (r *repl) printWrongAnswers() {
	p := r.sess.Profile()
	if len(p.WrongAnswers) == 0 {
		fmt.Println("no wrong answers recorded")
		return
	}
	for _, w := range p.WrongAnswers {
		fmt.Printf("level %d [%s]: %s\n  answer: %s\n", w.LevelNumber, w.Category, w.Question, w.Answer)
	}
}

func (r *repl) printTransactions() {
	for _, tx := range r.sess.Transactions() {
		fmt.Printf("%s  %-12s %s\n", tx.TransactionID, tx.SelectedPackage, tx.ApproveStatus)
	}
}

func (r *repl) buyHintPoints(ctx context.Context, fields []string) {
	if len(fields) < 2 {
		fmt.Println("usage: buy <package>")
		return
	}
	tx, err := r.sess.RequestHintPoints(ctx, "", fields[1])
	if err != nil {
		fmt.Println("purchase request failed:", err)
		return
	}
	fmt.Printf("purchase %s submitted, status %s\n", tx.TransactionID, tx.ApproveStatus)
}

// chatLoop joins the configured room and relays lines until /leave.
func (r *repl) chatLoop(ctx context.Context) {
	if !r.sess.Authenticated() {
		fmt.Println("log in before joining the chat")
		return
	}

	client := chat.NewClient(config.WSURL, r.sess.Identity(), chat.Handlers{
		OnMessage: func(msg models.ChatMessage) {
			prefix := ""
			if msg.MessageType == models.MessageTypeHelpRequest {
				prefix = "🆘 "
			}
			fmt.Printf("%s[%s] %s: %s\n", prefix, msg.FormattedTime, msg.Username, msg.Message)
		},
		OnTyping: func(username string, isTyping bool) {
			if isTyping {
				fmt.Printf("… %s is typing\n", username)
			}
		},
		OnError: func(message string) {
			fmt.Println("chat error:", message)
		},
		OnStatusChange: func(status chat.Status) {
			fmt.Println("chat:", status)
		},
	}, r.log)

	if err := client.Connect(ctx); err != nil {
		fmt.Println("chat connection failed, retrying in the background:", err)
	}
	if err := client.Join(config.ChatRoomID); err != nil {
		fmt.Println("cannot join chat:", err)
		client.Close()
		return
	}
	r.chat = client

	if history, err := r.api.ChatMessages(ctx, config.ChatRoomID); err == nil {
		for _, msg := range history {
			fmt.Printf("[%s] %s: %s\n", msg.FormattedTime, msg.Username, msg.Message)
		}
	}

	fmt.Println("joined", config.ChatRoomID, "— /help <question>, /who, /leave")
	for {
		if !r.in.Scan() {
			break
		}
		line := strings.TrimSpace(r.in.Text())
		switch {
		case line == "/leave":
			client.Close()
			r.chat = nil
			return
		case line == "/who":
			fmt.Println("typing:", strings.Join(client.TypingUsers(), ", "))
		case strings.HasPrefix(line, "/help "):
			client.RequestHelp(strings.TrimPrefix(line, "/help "))
		default:
			client.NotifyTyping()
			client.SendMessage(line)
		}
	}
	client.Close()
	r.chat = nil
}

func (r *repl) survey(ctx context.Context) {
	rating, err := strconv.Atoi(r.prompt("rating 1-5: "))
	if err != nil || rating < 1 || rating > 5 {
		fmt.Println("rating must be a number between 1 and 5")
		return
	}
	survey := models.SurveyResponse{
		Username: r.sess.Identity().Username,
		Rating:   rating,
		Feedback: r.prompt("feedback (optional): "),
	}
	if err := r.api.SubmitSurvey(ctx, survey); err != nil {
		fmt.Println("survey submission failed:", err)
		return
	}
	fmt.Println("thanks for the feedback!")
}

// shutdown releases resources held by the command loop.
func (r *repl) shutdown() {
	if r.chat != nil {
		r.chat.Close()
		r.chat = nil
	}
}
