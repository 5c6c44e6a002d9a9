package commands

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Lorenzzoczn/Aumigo/internal/document"
)

func documentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "document",
		Short: "Validate, generate and format CPF/CNPJ documents locally",
	}
	cmd.AddCommand(documentValidateCmd(), documentGenerateCmd(), documentFormatCmd())
	return cmd
}

func documentValidateCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "validate [document]",
		Short: "Check a CPF or CNPJ; the kind is inferred from the digit count unless --kind is set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(kind, args[0])
			if err != nil {
				return err
			}
			if err := document.Validate(k, args[0]); err != nil {
				return fmt.Errorf("%s %s: %w", k, args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid %s %s\n", k, document.Format(args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "cpf or cnpj")
	return cmd
}

func documentGenerateCmd() *cobra.Command {
	var count int
	var formatted bool
	cmd := &cobra.Command{
		Use:       "generate [cpf|cnpj]",
		Short:     "Generate random valid documents for testing",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"cpf", "cnpj"},
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(args[0], "")
			if err != nil {
				return err
			}
			for i := 0; i < count; i++ {
				id, err := generate(k)
				if err != nil {
					return err
				}
				if formatted {
					id = document.Format(id)
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "how many to generate")
	cmd.Flags().BoolVar(&formatted, "format", false, "print with punctuation")
	return cmd
}

func documentFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format [document]",
		Short: "Print a document with CPF/CNPJ punctuation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), document.Format(args[0]))
			return nil
		},
	}
}

// parseKind maps "cpf"/"cnpj" to a kind; empty kind classifies doc by length.
func parseKind(kind, doc string) (document.Kind, error) {
	switch kind {
	case "cpf":
		return document.KindIndividual, nil
	case "cnpj":
		return document.KindOrganization, nil
	case "":
		if k := document.Classify(doc); k != document.KindUnknown {
			return k, nil
		}
		return document.KindUnknown, document.ErrInvalidFormat
	default:
		return document.KindUnknown, fmt.Errorf("unknown document kind %q (want cpf or cnpj)", kind)
	}
}

// generate draws random body digits until the completed document validates;
// bodies of one repeated digit are rejected by Validate.
func generate(k document.Kind) (string, error) {
	n, complete := document.IndividualLength-2, document.CompleteIndividual
	if k == document.KindOrganization {
		n, complete = document.OrganizationLength-2, document.CompleteOrganization
	}
	for {
		seed := make([]byte, 0, n)
		for i := 0; i < n; i++ {
			d, err := rand.Int(rand.Reader, big.NewInt(10))
			if err != nil {
				return "", err
			}
			seed = strconv.AppendInt(seed, d.Int64(), 10)
		}
		id, err := complete(string(seed))
		if err != nil {
			return "", err
		}
		if document.Validate(k, id) == nil {
			return id, nil
		}
	}
}
