package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/aparthus-be/internal/client"
	"github.com/hongminglow/aparthus-be/internal/models/dto"
	"github.com/hongminglow/aparthus-be/internal/navigation"
	"github.com/hongminglow/aparthus-be/internal/session"
)

// Default server base URL; override with APARTHUS_SERVER or -server.
var serverBaseURL = "http://localhost:5001"

type options struct {
	user        string
	password    string
	id          string
	amount      string
	message     string
	block       string
	code        string
	name        string
	kind        string
	priority    string
	description string
}

func main() {
	cmd := flag.String("cmd", "whoami", "Command: login|logout|whoami|screens|residents|summary|pay|payments|remind|expenses|add-expense|transactions|announce|announcements|report-issue|emergency|save-qr|check-qr|enter|notify|notifications")
	serverFlag := flag.String("server", "", "Override server base URL (e.g. https://api.example.com)")
	var opts options
	flag.StringVar(&opts.user, "user", "", "Email (staff) or username (resident) for login")
	flag.StringVar(&opts.password, "password", "", "Password for login")
	flag.StringVar(&opts.id, "id", "", "Resident ID")
	flag.StringVar(&opts.amount, "amount", "", "Amount in TL")
	flag.StringVar(&opts.message, "message", "", "Announcement or notification text")
	flag.StringVar(&opts.block, "block", "", "Block for announcements")
	flag.StringVar(&opts.code, "code", "", "Visitor QR code")
	flag.StringVar(&opts.name, "name", "", "Visitor name")
	flag.StringVar(&opts.kind, "type", "", "Emergency type")
	flag.StringVar(&opts.priority, "priority", "", "Emergency priority (low|medium|high)")
	flag.StringVar(&opts.description, "description", "", "Expense, issue or emergency description")
	flag.Parse()
	if env := os.Getenv("APARTHUS_SERVER"); env != "" {
		serverBaseURL = strings.TrimRight(env, "/")
	}
	if *serverFlag != "" {
		serverBaseURL = strings.TrimRight(*serverFlag, "/")
	}

	dir, err := stateDir()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	api := client.New(serverBaseURL)
	sessions := session.NewManager(session.NewFileStore(dir))
	router := navigation.NewRouter()
	boot := client.NewBootstrapper(api, sessions, router)

	if err := run(ctx, *cmd, opts, api, boot, router); err != nil {
		alert := client.AlertFor(err)
		fmt.Printf("%s: %s\n", alert.Title, alert.Message)
		os.Exit(1)
	}
}

func stateDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("APARTHUS_HOME")); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".aparthus"), nil
}

func run(ctx context.Context, cmd string, opts options, api *client.Client, boot *client.Bootstrapper, router *navigation.Router) error {
	switch cmd {
	case "login":
		res, err := boot.Login(ctx, opts.user, opts.password)
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s. Home: %s\n", res.Role, res.Home)
		return nil
	case "logout":
		if _, err := boot.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	}

	s, err := boot.Resume()
	if errors.Is(err, session.ErrNoSession) {
		return &client.ValidationError{Message: "Önce giriş yapın (-cmd login)."}
	}
	if err != nil {
		return err
	}

	// screen-bound commands go through the same guard as app navigation
	if screen, ok := commandScreens[cmd]; ok {
		if router.Navigate(screen) == navigation.NotAuthorized {
			return &client.ValidationError{Message: fmt.Sprintf("%s ekranına erişim yetkiniz yok.", screen)}
		}
	}

	switch cmd {
	case "whoami":
		return printJSON(s)
	case "screens":
		for _, screen := range router.Screens() {
			fmt.Println(screen)
		}
		return nil
	case "residents":
		out, err := api.ListResidents(ctx)
		return printResult(out, err)
	case "summary":
		out, err := api.DuesSummary(ctx)
		return printResult(out, err)
	case "pay":
		amount, err := parseAmount(opts.amount)
		if err != nil {
			return err
		}
		out, err := api.PayDues(ctx, opts.id, amount)
		return printResult(out, err)
	case "payments":
		id := opts.id
		if id == "" {
			id = s.ResidentID
		}
		out, err := api.PaymentStatus(ctx, id)
		return printResult(out, err)
	case "remind":
		if opts.id == "" {
			n, err := api.SendReminders(ctx)
			return printResult(map[string]int{"delivered": n}, err)
		}
		out, err := api.SendReminder(ctx, opts.id)
		return printResult(out, err)
	case "expenses":
		out, err := api.ListExpenses(ctx)
		return printResult(out, err)
	case "add-expense":
		amount, err := parseAmount(opts.amount)
		if err != nil {
			return err
		}
		out, err := api.CreateExpense(ctx, dto.ExpenseRequest{Description: opts.description, Amount: amount})
		return printResult(out, err)
	case "transactions":
		out, err := api.ListTransactions(ctx)
		return printResult(out, err)
	case "announce":
		out, err := api.CreateAnnouncement(ctx, dto.AnnouncementRequest{Message: opts.message, Block: opts.block})
		return printResult(out, err)
	case "announcements":
		out, err := api.ListAnnouncements(ctx, opts.block)
		return printResult(out, err)
	case "report-issue":
		out, err := api.ReportIssue(ctx, opts.description)
		return printResult(out, err)
	case "emergency":
		out, err := api.ReportEmergency(ctx, dto.EmergencyRequest{Type: opts.kind, Priority: opts.priority, Description: opts.description})
		return printResult(out, err)
	case "save-qr":
		out, err := api.SaveVisitor(ctx, dto.SaveQRRequest{QRCode: opts.code, VisitorName: opts.name})
		return printResult(out, err)
	case "check-qr":
		ok, err := api.CheckQR(ctx, opts.code)
		return printResult(map[string]bool{"isRegistered": ok}, err)
	case "enter":
		out, err := api.RecordEntry(ctx, opts.code)
		if err == nil && out.AlreadyEntered {
			fmt.Println("Uyarı: Bu ziyaretçi zaten giriş yaptı")
		}
		return printResult(out, err)
	case "notify":
		n, err := api.SendNotification(ctx, opts.id, opts.message)
		return printResult(map[string]int{"delivered": n}, err)
	case "notifications":
		out, err := api.ListNotifications(ctx)
		return printResult(out, err)
	}
	return &client.ValidationError{Message: fmt.Sprintf("Bilinmeyen komut: %s", cmd)}
}

var commandScreens = map[string]navigation.Screen{
	"residents":     navigation.ManageUsers,
	"summary":       navigation.ExpenseDetails,
	"remind":        navigation.ExpenseDetails,
	"expenses":      navigation.ExpenseDetails,
	"add-expense":   navigation.ExpenseDetails,
	"transactions":  navigation.BankTransactions,
	"announce":      navigation.Announcement,
	"notify":        navigation.SendNotification,
	"report-issue":  navigation.ReportIssue,
	"emergency":     navigation.EmergencyReport,
	"notifications": navigation.ResidentHome,
	"check-qr":      navigation.QRCodeScanner,
	"enter":         navigation.QRCodeScanner,
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !amount.IsPositive() {
		return decimal.Decimal{}, &client.ValidationError{Field: "amount", Message: "Tutar geçerli bir sayı olmalıdır."}
	}
	return amount, nil
}

func printResult(v any, err error) error {
	if err != nil {
		return err
	}
	return printJSON(v)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
