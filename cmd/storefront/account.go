package main

import (
	"sort"

	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/storefront/usecase/command"
)

func registerAccountCommands(r *CommandRegistry, c *cli) {
	login := &Command{
		Name:        "login",
		Description: "Sign in and keep the session",
		Usage:       "storefront login --email <email> --password <password>",
		Examples:    []string{"storefront login --email buyer@storefront.test --password storefront"},
	}
	login.Run = func(args []string) error {
		fs := login.NewFlagSet()
		email := fs.String("email", "", "Account email")
		password := fs.String("password", "", "Account password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		sf, err := c.storefront()
		if err != nil {
			return err
		}
		user, err := sf.Commands.SignIn.Handle(c.ctx, command.SignInCommand{
			Login: domain.SignInInput{Email: *email, Password: *password},
		})
		if err != nil {
			return err
		}
		c.printf("Signed in as %s (%s)\n", user.Name, user.Role)
		return nil
	}
	r.Register(login)

	signup := &Command{
		Name:        "signup",
		Description: "Create an account and sign in",
		Usage:       "storefront signup --email <email> --name <name> --password <password> --address <address> [--phone <phone>] [--provider]",
		Examples: []string{
			"storefront signup --email me@example.com --name Me --password secret1 --address \"1 Main St\"",
			"storefront signup --email shop@example.com --name Shop --password secret1 --address \"2 Side St\" --provider",
		},
	}
	signup.Run = func(args []string) error {
		fs := signup.NewFlagSet()
		email := fs.String("email", "", "Account email")
		name := fs.String("name", "", "Display name")
		password := fs.String("password", "", "Password, at least 6 characters")
		phone := fs.String("phone", "", "Phone number")
		address := fs.String("address", "", "Delivery address")
		provider := fs.Bool("provider", false, "Sign up as a seller")
		if err := fs.Parse(args); err != nil {
			return err
		}
		role := domain.RoleConsumer
		if *provider {
			role = domain.RoleProvider
		}
		sf, err := c.storefront()
		if err != nil {
			return err
		}
		user, err := sf.Commands.SignIn.Handle(c.ctx, command.SignInCommand{
			SignUp: &domain.SignUpInput{
				Email:                *email,
				Name:                 *name,
				Password:             *password,
				PasswordConfirmation: *password,
				Phone:                *phone,
				Address1:             *address,
				Role:                 role,
			},
		})
		if err != nil {
			return err
		}
		c.printf("Welcome, %s. You are signed in.\n", user.Name)
		return nil
	}
	r.Register(signup)

	r.Register(&Command{
		Name:        "logout",
		Description: "Sign out and forget the local session",
		Usage:       "storefront logout",
		Run: func(args []string) error {
			sf, err := c.storefront()
			if err != nil {
				return err
			}
			if !sf.State.Auth().Get().Authenticated() {
				c.printf("Not signed in\n")
				return nil
			}
			if err := sf.Sessions.Logout(c.ctx); err != nil {
				return err
			}
			c.printf("Signed out\n")
			return nil
		},
	})

	r.Register(&Command{
		Name:        "whoami",
		Description: "Show the signed-in account",
		Usage:       "storefront whoami",
		Run: func(args []string) error {
			sf, err := c.storefront()
			if err != nil {
				return err
			}
			auth := sf.State.Auth().Get()
			if !auth.Authenticated() {
				c.printf("Not signed in\n")
				return nil
			}
			u := auth.CurrentUser
			t := NewTableWriter("Field", "Value")
			t.AddRow("ID", u.ID)
			t.AddRow("Email", u.Email)
			t.AddRow("Name", u.Name)
			t.AddRow("Role", string(u.Role))
			t.AddRow("Phone", u.Phone)
			t.AddRow("Address", u.Address1)
			t.AddRow("Shopping list", formatCount(len(sf.State.Cart().Get()), "line"))
			t.Print(c.out)
			return nil
		},
	})

	profile := &Command{
		Name:        "profile",
		Description: "Edit the signed-in account; omitted fields keep their value",
		Usage:       "storefront profile [--email <email>] [--name <name>] [--phone <phone>] [--address <address>]",
		Examples:    []string{"storefront profile --address \"3 New Road\""},
	}
	profile.Run = func(args []string) error {
		fs := profile.NewFlagSet()
		email := fs.String("email", "", "New email")
		name := fs.String("name", "", "New display name")
		phone := fs.String("phone", "", "New phone number")
		address := fs.String("address", "", "New delivery address")
		if err := fs.Parse(args); err != nil {
			return err
		}
		sf, err := c.storefront()
		if err != nil {
			return err
		}
		current, err := sf.Sessions.RequireUser()
		if err != nil {
			return err
		}
		in := domain.EditProfileInput{
			Email:    orDefault(*email, current.Email),
			Name:     orDefault(*name, current.Name),
			Phone:    orDefault(*phone, current.Phone),
			Address1: orDefault(*address, current.Address1),
		}
		user, err := sf.Commands.EditProfile.Handle(c.ctx, in)
		if err != nil {
			return err
		}
		c.printf("Profile saved for %s\n", user.Email)
		return nil
	}
	r.Register(profile)

	password := &Command{
		Name:        "password",
		Description: "Change the account password",
		Usage:       "storefront password --current <password> --new <password>",
	}
	password.Run = func(args []string) error {
		fs := password.NewFlagSet()
		current := fs.String("current", "", "Current password")
		next := fs.String("new", "", "New password, at least 6 characters")
		if err := fs.Parse(args); err != nil {
			return err
		}
		sf, err := c.storefront()
		if err != nil {
			return err
		}
		err = sf.Commands.ChangePassword.Handle(c.ctx, domain.ChangePasswordInput{
			CurrentPassword:      *current,
			NewPassword:          *next,
			PasswordConfirmation: *next,
		})
		if err != nil {
			return err
		}
		c.printf("Password changed\n")
		return nil
	}
	r.Register(password)

	r.Register(&Command{
		Name:        "status",
		Description: "Probe the backend and show circuit breaker states",
		Usage:       "storefront status",
		Run: func(args []string) error {
			sf, err := c.storefront()
			if err != nil {
				return err
			}
			health, err := sf.Client.Health(c.ctx)
			if err != nil {
				return err
			}
			c.printf("Backend %s: %s\n", health.Service, health.Status)

			stats := sf.Client.BreakerStats()
			if len(stats) == 0 {
				return nil
			}
			names := make([]string, 0, len(stats))
			for name := range stats {
				names = append(names, name)
			}
			sort.Strings(names)
			t := NewTableWriter("Resource", "Breaker")
			for _, name := range names {
				t.AddRow(name, formatValue(stats[name]))
			}
			t.Print(c.out)
			return nil
		},
	})
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
