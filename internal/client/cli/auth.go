package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AnshRaj112/ediary-backend/internal/calendar"
	"github.com/AnshRaj112/ediary-backend/internal/client/session"
	"github.com/AnshRaj112/ediary-backend/internal/models"
)

func greeting(u models.User) string {
	return calendar.GreetingName(u.Username, u.FirstName, u.LastName, u.Email)
}

func (c *cli) signupCmd() *cobra.Command {
	var in session.SignupInput
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if in.Email == "" {
				if in.Email, err = c.promptLine(cmd, "Email"); err != nil {
					return err
				}
			}
			if in.Password == "" {
				if in.Password, err = c.promptPassword(cmd, "Password"); err != nil {
					return err
				}
			}
			u, err := c.session.Signup(cmd.Context(), in)
			if err != nil {
				return err
			}
			if err := c.entries.Load(cmd.Context(), c.session.Identity()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created. Welcome, %s!\n", greeting(u))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.Password, "password", "", "password, prompted when omitted")
	f.StringVar(&in.Username, "username", "", "username")
	f.StringVar(&in.FirstName, "first-name", "", "first name")
	f.StringVar(&in.LastName, "last-name", "", "last name")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login [username or email]",
		Short: "Sign in",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var identifier string
			var err error
			if len(args) == 1 {
				identifier = args[0]
			} else if identifier, err = c.promptLine(cmd, "Username or email"); err != nil {
				return err
			}
			if password == "" {
				if password, err = c.promptPassword(cmd, "Password"); err != nil {
					return err
				}
			}

			u, err := c.session.Login(cmd.Context(), identifier, password)
			if err != nil {
				return err
			}
			if err := c.entries.Load(cmd.Context(), c.session.Identity()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome back, %s!\n", greeting(u))
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password, prompted when omitted")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.session.Logout(cmd.Context()); err != nil {
				return err
			}
			c.entries.Reset()
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			u, ok := c.session.Current()
			if !ok {
				fmt.Fprintf(out, "Not signed in (mode %s).\n", c.entries.Mode())
				return nil
			}
			fmt.Fprintf(out, "Signed in as %s", u.Email)
			if u.Username != "" {
				fmt.Fprintf(out, " (%s)", u.Username)
			}
			fmt.Fprintf(out, ", mode %s.\n", c.entries.Mode())
			return nil
		},
	}
}

func (c *cli) profileCmd() *cobra.Command {
	var firstName, lastName, email, username, phone string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.user(); err != nil {
				return err
			}

			var p models.ProfileUpdate
			set := func(name string, v *string) *string {
				if cmd.Flags().Changed(name) {
					return v
				}
				return nil
			}
			p.FirstName = set("first-name", &firstName)
			p.LastName = set("last-name", &lastName)
			p.Email = set("email", &email)
			p.Username = set("username", &username)
			p.Phone = set("phone", &phone)

			u, _ := c.session.Current()
			if !p.Empty() {
				var err error
				if u, err = c.session.UpdateProfile(cmd.Context(), p); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Profile updated.")
			}
			printProfile(cmd, u)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&firstName, "first-name", "", "first name")
	f.StringVar(&lastName, "last-name", "", "last name")
	f.StringVar(&email, "email", "", "email address")
	f.StringVar(&username, "username", "", "username")
	f.StringVar(&phone, "phone", "", "phone number")
	return cmd
}

func printProfile(cmd *cobra.Command, u models.User) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name:     %s\n", strings.TrimSpace(u.FirstName+" "+u.LastName))
	fmt.Fprintf(out, "Email:    %s\n", u.Email)
	fmt.Fprintf(out, "Username: %s\n", u.Username)
	if u.Phone != "" {
		fmt.Fprintf(out, "Phone:    %s\n", u.Phone)
	}
}
