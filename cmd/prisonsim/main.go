// Command prisonsim runs the prison-world simulation core behind a minimal
// text shell: new-game, load-game <slot>, save-game <slot>, and an
// interactive step loop. Rendering here is deliberately thin; the core only
// hands back symbolic tokens.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/talgya/prison-world/internal/persistence"
	"github.com/talgya/prison-world/internal/quests"
	"github.com/talgya/prison-world/internal/sim"
	"github.com/talgya/prison-world/internal/skills"
)

func main() {
	godotenv.Load()

	level := slog.LevelInfo
	if os.Getenv("PRISON_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	dbPath := envOr("PRISON_DB", "data/prison.db")
	seed := int64(42)
	if v := os.Getenv("PRISON_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			seed = n
		}
	}

	os.MkdirAll("data", 0o755)
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	game, err := sim.New(sim.Config{
		PlayerName: envOr("PRISON_PLAYER", "Mahan"),
		Seed:       seed,
		ContentDir: os.Getenv("PRISON_CONTENT_DIR"),
		DB:         db,
	})
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}

	args := os.Args[1:]
	switch {
	case len(args) == 0 || args[0] == "new-game":
		game.Start()
	case args[0] == "load-game" && len(args) > 1:
		slot, _ := strconv.Atoi(args[1])
		if err := game.LoadSlot(slot); err != nil {
			slog.Error("load failed", "slot", slot, "error", err)
			os.Exit(1)
		}
		fmt.Printf("loaded slot %d\n", slot)
	case args[0] == "save-game":
		fmt.Println("save-game works from inside a session: 'save <slot>'")
		os.Exit(2)
	default:
		fmt.Println("usage: prisonsim [new-game | load-game <slot>]")
		os.Exit(2)
	}

	repl(game)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func repl(game *sim.Simulation) {
	fmt.Println("prison-world — type 'help' for commands")
	scanner := bufio.NewScanner(os.Stdin)
	printView(game)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "status" || fields[0] == "quests" {
			printView(game)
			continue
		}

		intent, ok := parseIntent(fields)
		if !ok {
			continue
		}
		if intent.Kind == sim.IntentQuit {
			game.Step(intent)
			fmt.Println("bye")
			return
		}

		res := game.Step(intent)
		render(game, res)
		if game.Mode() == sim.ModeDead {
			fmt.Println("you are dead — 'load <slot>' or 'quit'")
		}
	}
}

func parseIntent(fields []string) (sim.Intent, bool) {
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	num := func(i int) int {
		n, _ := strconv.Atoi(arg(i))
		return n
	}

	switch fields[0] {
	case "help":
		fmt.Println(`commands:
  go <direction>                       move
  talk <npc>                           interact
  use <skill> <difficulty>             practice a skill
  investigate <quest> <action> <target>
  resolve <quest> <branch>
  wait <minutes>
  status | quests
  save <slot> | load <slot> | quit`)
		return sim.Intent{}, false
	case "go":
		return sim.Intent{Kind: sim.IntentMove, Direction: arg(1)}, true
	case "talk":
		return sim.Intent{Kind: sim.IntentInteract, NPCID: arg(1), Verb: "talk"}, true
	case "use":
		return sim.Intent{Kind: sim.IntentUseSkill, SkillID: skills.ID(arg(1)), Difficulty: num(2)}, true
	case "investigate":
		return sim.Intent{Kind: sim.IntentInvestigate, QuestID: arg(1), Action: quests.Action(arg(2)), Target: arg(3)}, true
	case "resolve":
		return sim.Intent{Kind: sim.IntentResolveQuest, QuestID: arg(1), BranchID: arg(2)}, true
	case "wait":
		return sim.Intent{Kind: sim.IntentWait, Minutes: num(1)}, true
	case "save":
		return sim.Intent{Kind: sim.IntentSave, Slot: num(1)}, true
	case "load":
		return sim.Intent{Kind: sim.IntentLoad, Slot: num(1)}, true
	case "quit":
		return sim.Intent{Kind: sim.IntentQuit}, true
	default:
		fmt.Println("unknown command; try 'help'")
		return sim.Intent{}, false
	}
}

func printView(game *sim.Simulation) {
	view := game.View()
	fmt.Printf("day %d, %02d:%02d — %s — %s, health %.0f, pain %.0f, %s\n",
		view.Day, view.GameTime/60, view.GameTime%60,
		view.Weather.Description, view.Location,
		view.Health, view.Pain,
		humanize.Comma(int64(view.Gold))+" gold")
	for _, q := range view.Quests {
		line := fmt.Sprintf("  quest %s [%s] %.0f%%", q.ID, q.State, q.InvestigationPercent)
		if q.TimeSensitive && q.TimeRemainingHours > 0 {
			deadline := time.Duration(q.TimeRemainingHours * float64(time.Hour))
			line += " — expires " + humanize.Time(time.Now().Add(deadline))
		}
		fmt.Println(line)
	}
}

func render(game *sim.Simulation, res sim.StepResult) {
	for _, msg := range res.Messages {
		fmt.Printf("  [%s] %v\n", msg.Kind, msg.Params)
	}
	if res.Hint != nil {
		fmt.Printf("  !! something is happening here: %s (%s)\n", res.Hint.Name, res.Hint.Method)
	}
	printView(game)
}
