package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/config"
	"github.com/smartbizhq/smartbiz-engine/pkg/database"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load fixture data from a YAML file",
	Long: `Loads demo or staging data from a YAML fixture into the configured
database. Users and employees already present (matched by email) are
skipped; all other rows are inserted as-is, so re-running the same
fixture duplicates them.

Every fixture must declare at least one user. Domain rows may name an
"owner" by user email; rows without one are attributed to the first
user in the fixture.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "Path to the YAML fixture")
	_ = seedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(seedCmd)
}

// seedDateFormat is the date-only layout used by fixture files.
const seedDateFormat = "2006-01-02"

type seedFixture struct {
	Users        []seedUser        `yaml:"users"`
	Transactions []seedTransaction `yaml:"transactions"`
	Invoices     []seedInvoice     `yaml:"invoices"`
	Employees    []seedEmployee    `yaml:"employees"`
	Leads        []seedLead        `yaml:"leads"`
	Customers    []seedCustomer    `yaml:"customers"`
	Tickets      []seedTicket      `yaml:"tickets"`
}

type seedUser struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	FullName string `yaml:"full_name"`
	Role     string `yaml:"role"`
}

type seedTransaction struct {
	Type        string  `yaml:"type"`
	Category    string  `yaml:"category"`
	Amount      float64 `yaml:"amount"`
	Description string  `yaml:"description"`
	Date        string  `yaml:"date"`
	Owner       string  `yaml:"owner"`
}

type seedInvoice struct {
	CustomerName string  `yaml:"customer_name"`
	Amount       float64 `yaml:"amount"`
	Status       string  `yaml:"status"`
	IssuedDate   string  `yaml:"issued_date"`
	DueDate      string  `yaml:"due_date"`
	Owner        string  `yaml:"owner"`
}

type seedEmployee struct {
	FullName   string  `yaml:"full_name"`
	Email      string  `yaml:"email"`
	Position   string  `yaml:"position"`
	Department string  `yaml:"department"`
	Salary     float64 `yaml:"salary"`
	HireDate   string  `yaml:"hire_date"`
	Owner      string  `yaml:"owner"`
}

type seedLead struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Company  string `yaml:"company"`
	Industry string `yaml:"industry"`
	Status   string `yaml:"status"`
	Source   string `yaml:"source"`
	Notes    string `yaml:"notes"`
	Owner    string `yaml:"owner"`
}

type seedCustomer struct {
	Name         string  `yaml:"name"`
	Email        string  `yaml:"email"`
	Company      string  `yaml:"company"`
	Phone        string  `yaml:"phone"`
	TotalRevenue float64 `yaml:"total_revenue"`
	Owner        string  `yaml:"owner"`
}

type seedTicket struct {
	Subject       string `yaml:"subject"`
	Description   string `yaml:"description"`
	Status        string `yaml:"status"`
	Priority      string `yaml:"priority"`
	CustomerEmail string `yaml:"customer_email"`
	Owner         string `yaml:"owner"`
}

// loadFixture reads and validates a fixture file.
func loadFixture(path string) (*seedFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var fx seedFixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(seedDateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", s, apperrors.ErrValidation)
	}
	return t, nil
}

func (f *seedFixture) validate() error {
	if len(f.Users) == 0 {
		return fmt.Errorf("fixture must declare at least one user: %w", apperrors.ErrValidation)
	}

	known := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		if u.Email == "" || u.Password == "" || u.FullName == "" {
			return fmt.Errorf("users[%d]: email, password and full_name are required: %w", i, apperrors.ErrValidation)
		}
		if !models.IsValidRole(u.Role) {
			return fmt.Errorf("users[%d]: invalid role %q: %w", i, u.Role, apperrors.ErrValidation)
		}
		known[u.Email] = true
	}

	checkOwner := func(section string, i int, owner string) error {
		if owner != "" && !known[owner] {
			return fmt.Errorf("%s[%d]: owner %q is not declared in users: %w", section, i, owner, apperrors.ErrValidation)
		}
		return nil
	}

	for i, t := range f.Transactions {
		if !models.IsValidTransactionType(t.Type) {
			return fmt.Errorf("transactions[%d]: invalid type %q: %w", i, t.Type, apperrors.ErrValidation)
		}
		if !models.IsValidTransactionCategory(t.Category) {
			return fmt.Errorf("transactions[%d]: invalid category %q: %w", i, t.Category, apperrors.ErrValidation)
		}
		if t.Amount <= 0 {
			return fmt.Errorf("transactions[%d]: amount must be positive: %w", i, apperrors.ErrValidation)
		}
		if _, err := parseDate(t.Date); err != nil {
			return fmt.Errorf("transactions[%d]: %w", i, err)
		}
		if err := checkOwner("transactions", i, t.Owner); err != nil {
			return err
		}
	}

	for i, inv := range f.Invoices {
		if inv.CustomerName == "" {
			return fmt.Errorf("invoices[%d]: customer_name is required: %w", i, apperrors.ErrValidation)
		}
		if !models.IsValidInvoiceStatus(inv.Status) {
			return fmt.Errorf("invoices[%d]: invalid status %q: %w", i, inv.Status, apperrors.ErrValidation)
		}
		if inv.Amount <= 0 {
			return fmt.Errorf("invoices[%d]: amount must be positive: %w", i, apperrors.ErrValidation)
		}
		if _, err := parseDate(inv.IssuedDate); err != nil {
			return fmt.Errorf("invoices[%d]: issued_date: %w", i, err)
		}
		if _, err := parseDate(inv.DueDate); err != nil {
			return fmt.Errorf("invoices[%d]: due_date: %w", i, err)
		}
		if err := checkOwner("invoices", i, inv.Owner); err != nil {
			return err
		}
	}

	for i, e := range f.Employees {
		if e.FullName == "" || e.Email == "" {
			return fmt.Errorf("employees[%d]: full_name and email are required: %w", i, apperrors.ErrValidation)
		}
		if e.Salary < 0 {
			return fmt.Errorf("employees[%d]: salary must not be negative: %w", i, apperrors.ErrValidation)
		}
		if _, err := parseDate(e.HireDate); err != nil {
			return fmt.Errorf("employees[%d]: hire_date: %w", i, err)
		}
		if err := checkOwner("employees", i, e.Owner); err != nil {
			return err
		}
	}

	for i, l := range f.Leads {
		if l.Name == "" {
			return fmt.Errorf("leads[%d]: name is required: %w", i, apperrors.ErrValidation)
		}
		if !models.IsValidLeadStatus(l.Status) {
			return fmt.Errorf("leads[%d]: invalid status %q: %w", i, l.Status, apperrors.ErrValidation)
		}
		if !models.IsValidLeadSource(l.Source) {
			return fmt.Errorf("leads[%d]: invalid source %q: %w", i, l.Source, apperrors.ErrValidation)
		}
		if err := checkOwner("leads", i, l.Owner); err != nil {
			return err
		}
	}

	for i, c := range f.Customers {
		if c.Name == "" {
			return fmt.Errorf("customers[%d]: name is required: %w", i, apperrors.ErrValidation)
		}
		if err := checkOwner("customers", i, c.Owner); err != nil {
			return err
		}
	}

	for i, tk := range f.Tickets {
		if tk.Subject == "" {
			return fmt.Errorf("tickets[%d]: subject is required: %w", i, apperrors.ErrValidation)
		}
		if !models.IsValidTicketStatus(tk.Status) {
			return fmt.Errorf("tickets[%d]: invalid status %q: %w", i, tk.Status, apperrors.ErrValidation)
		}
		if !models.IsValidTicketPriority(tk.Priority) {
			return fmt.Errorf("tickets[%d]: invalid priority %q: %w", i, tk.Priority, apperrors.ErrValidation)
		}
		if err := checkOwner("tickets", i, tk.Owner); err != nil {
			return err
		}
	}

	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fx, err := loadFixture(seedFile)
	if err != nil {
		return err
	}

	cfg, err := config.Load(Version)
	if err != nil {
		return err
	}

	db, err := database.NewConnectionFromConfig(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	userRepo := repositories.NewUserRepository(db)

	owners := make(map[string]uuid.UUID, len(fx.Users))
	usersCreated := 0
	for _, u := range fx.Users {
		hashed, err := auth.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
		user := &models.User{
			Email:          u.Email,
			FullName:       u.FullName,
			HashedPassword: hashed,
			Role:           u.Role,
			IsActive:       true,
		}
		err = userRepo.Create(ctx, user)
		switch {
		case errors.Is(err, apperrors.ErrConflict):
			existing, getErr := userRepo.GetByEmail(ctx, u.Email)
			if getErr != nil {
				return fmt.Errorf("user %s: %w", u.Email, getErr)
			}
			owners[u.Email] = existing.ID
		case err != nil:
			return fmt.Errorf("user %s: %w", u.Email, err)
		default:
			owners[u.Email] = user.ID
			usersCreated++
		}
	}

	defaultOwner := owners[fx.Users[0].Email]
	resolveOwner := func(email string) uuid.UUID {
		if email == "" {
			return defaultOwner
		}
		return owners[email]
	}

	txRepo := repositories.NewTransactionRepository(db)
	for i, t := range fx.Transactions {
		date, err := parseDate(t.Date)
		if err != nil {
			return fmt.Errorf("transactions[%d]: %w", i, err)
		}
		tx := &models.Transaction{
			Type:        t.Type,
			Category:    t.Category,
			Amount:      t.Amount,
			Description: t.Description,
			Date:        date,
			CreatedBy:   resolveOwner(t.Owner),
		}
		if err := txRepo.Create(ctx, tx); err != nil {
			return fmt.Errorf("transactions[%d]: %w", i, err)
		}
	}

	invoiceRepo := repositories.NewInvoiceRepository(db)
	for i, in := range fx.Invoices {
		issued, err := parseDate(in.IssuedDate)
		if err != nil {
			return fmt.Errorf("invoices[%d]: %w", i, err)
		}
		due, err := parseDate(in.DueDate)
		if err != nil {
			return fmt.Errorf("invoices[%d]: %w", i, err)
		}
		inv := &models.Invoice{
			CustomerName: in.CustomerName,
			Amount:       in.Amount,
			Status:       in.Status,
			IssuedDate:   issued,
			DueDate:      due,
			CreatedBy:    resolveOwner(in.Owner),
		}
		if err := invoiceRepo.Create(ctx, inv); err != nil {
			return fmt.Errorf("invoices[%d]: %w", i, err)
		}
	}

	employeeRepo := repositories.NewEmployeeRepository(db)
	employeesSkipped := 0
	for i, e := range fx.Employees {
		hired, err := parseDate(e.HireDate)
		if err != nil {
			return fmt.Errorf("employees[%d]: %w", i, err)
		}
		emp := &models.Employee{
			FullName:   e.FullName,
			Email:      e.Email,
			Position:   e.Position,
			Department: e.Department,
			Salary:     e.Salary,
			HireDate:   hired,
			IsActive:   true,
			CreatedBy:  resolveOwner(e.Owner),
		}
		err = employeeRepo.Create(ctx, emp)
		if errors.Is(err, apperrors.ErrConflict) {
			employeesSkipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("employees[%d]: %w", i, err)
		}
	}

	leadRepo := repositories.NewLeadRepository(db)
	for i, l := range fx.Leads {
		lead := &models.Lead{
			Name:     l.Name,
			Email:    l.Email,
			Company:  l.Company,
			Industry: l.Industry,
			Status:   l.Status,
			Source:   l.Source,
			Notes:    l.Notes,
			OwnerID:  resolveOwner(l.Owner),
		}
		if err := leadRepo.Create(ctx, lead); err != nil {
			return fmt.Errorf("leads[%d]: %w", i, err)
		}
	}

	customerRepo := repositories.NewCustomerRepository(db)
	for i, c := range fx.Customers {
		customer := &models.Customer{
			Name:         c.Name,
			Email:        c.Email,
			Company:      c.Company,
			Phone:        c.Phone,
			TotalRevenue: c.TotalRevenue,
			OwnerID:      resolveOwner(c.Owner),
		}
		if err := customerRepo.Create(ctx, customer); err != nil {
			return fmt.Errorf("customers[%d]: %w", i, err)
		}
	}

	ticketRepo := repositories.NewTicketRepository(db)
	for i, tk := range fx.Tickets {
		ticket := &models.SupportTicket{
			Subject:       tk.Subject,
			Description:   tk.Description,
			Status:        tk.Status,
			Priority:      tk.Priority,
			CustomerEmail: tk.CustomerEmail,
			CreatedBy:     resolveOwner(tk.Owner),
		}
		if err := ticketRepo.Create(ctx, ticket); err != nil {
			return fmt.Errorf("tickets[%d]: %w", i, err)
		}
	}

	logger.Info("Seed complete",
		zap.Int("users_created", usersCreated),
		zap.Int("users_skipped", len(fx.Users)-usersCreated),
		zap.Int("transactions", len(fx.Transactions)),
		zap.Int("invoices", len(fx.Invoices)),
		zap.Int("employees", len(fx.Employees)-employeesSkipped),
		zap.Int("employees_skipped", employeesSkipped),
		zap.Int("leads", len(fx.Leads)),
		zap.Int("customers", len(fx.Customers)),
		zap.Int("tickets", len(fx.Tickets)))
	return nil
}
