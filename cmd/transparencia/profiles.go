package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

// The read surface ships with a fixed set of access profiles; the seed
// is idempotent and safe to rerun after deploys.
var accessProfilesSeed = []store.AccessProfile{
	{
		Nome:       "publico",
		Descricao:  "Acesso de leitura aos dados reconciliados",
		Permissoes: "licitacoes:ler,contratos:ler,fornecedores:ler,servidores:ler,financas:ler",
	},
	{
		Nome:       "auditor",
		Descricao:  "Leitura ampliada com alertas e historico de execucoes",
		Permissoes: "publico:*,alertas:ler,sync-runs:ler,provenance:ler",
	},
	{
		Nome:       "operador",
		Descricao:  "Opera cargas e sincronizacoes",
		Permissoes: "auditor:*,pipeline:executar",
	},
}

var accessProfilesCmd = &cobra.Command{
	Use:   "access-profiles",
	Short: "Garante os perfis de acesso padrão no banco",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		seeded, err := a.storage.Admin.EnsureAccessProfiles(ctx, accessProfilesSeed)
		if err != nil {
			return fmt.Errorf("perfis de acesso: %w", err)
		}

		profiles, err := a.storage.Admin.ListAccessProfiles(ctx)
		if err != nil {
			return fmt.Errorf("perfis de acesso: %w", err)
		}
		for _, profile := range profiles {
			fmt.Printf("%-10s %s\n", profile.Nome, profile.Descricao)
		}
		color.Green("%d perfis garantidos", seeded)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accessProfilesCmd)
}
