package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/env"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/pipeline"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/validate"
)

var (
	legacyDataDir    string
	legacyExportsDir string

	reprocessDataDir  string
	reprocessTruncate bool

	syncSource          string
	syncBaseURL         string
	syncDataDir         string
	syncCodigoIBGE      string
	syncCodigoMunicipio string
	syncCamaraURL       string
	syncCamaraPortalURL string

	checkDataDir string
)

var legacyLoadCmd = &cobra.Command{
	Use:   "legacy-load",
	Short: "Carrega o snapshot legado do portal para o banco",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		run, total, err := a.pipe.LoadLegacySnapshot(cmd.Context(), legacyDataDir, legacyExportsDir)
		if err != nil {
			return fmt.Errorf("carga legada: %w", err)
		}
		color.Green("carga legada concluida: %d registros (run %s)", total, run.UUID)
		return nil
	},
}

var reprocessCmd = &cobra.Command{
	Use:   "reprocess",
	Short: "Reprocessa todos os arquivos disponíveis no diretório de dados",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		run, total, err := a.pipe.Reprocess(cmd.Context(), reprocessDataDir, reprocessTruncate)
		if err != nil {
			return fmt.Errorf("reprocessamento: %w", err)
		}
		color.Green("reprocessamento concluido: %d registros (run %s)", total, run.UUID)
		return nil
	},
}

var liveSyncCmd = &cobra.Command{
	Use:   "live-sync",
	Short: "Sincroniza uma fonte ao vivo (prefeitura, camara, tce ou contexto)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := pipeline.Fonte(syncSource); err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		var total int
		switch syncSource {
		case "prefeitura":
			_, total, err = a.pipe.SyncPrefeitura(ctx, baseURLOr("PREFEITURA_BASE_URL", "https://transparencia.tibaudosul.rn.gov.br/api"))
		case "camara":
			_, total, err = a.pipe.SyncCamara(ctx, baseURLOr("CAMARA_BASE_URL", "https://transparencia.camaratibaudosul.rn.gov.br/api"))
		case "tce":
			_, total, err = a.pipe.SyncTCE(ctx,
				baseURLOr("TCE_BASE_URL", "https://apidados.tce.rn.gov.br/api"),
				syncCodigoMunicipio)
		case "contexto":
			_, total, err = a.pipe.SyncContexto(ctx, pipeline.ContextoParams{
				DataDir:           syncDataDir,
				CodigoIBGE:        syncCodigoIBGE,
				PrefeituraBaseURL: baseURLOr("PREFEITURA_BASE_URL", "https://transparencia.tibaudosul.rn.gov.br/api"),
				CamaraBaseURL:     syncCamaraURL,
				CamaraPortalURL:   syncCamaraPortalURL,
			})
		}
		if err != nil {
			return fmt.Errorf("sincronizacao %s: %w", syncSource, err)
		}
		color.Green("sincronizacao %s concluida: %d registros", syncSource, total)
		return nil
	},
}

// baseURLOr resolves the --base-url flag, falling back to the source's
// environment variable and then the known portal address.
func baseURLOr(envKey, fallback string) string {
	if syncBaseURL != "" {
		return syncBaseURL
	}
	return env.GetString(envKey, fallback)
}

var consistencyCheckCmd = &cobra.Command{
	Use:   "consistency-check",
	Short: "Confere os agregados do banco contra os arquivos do snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		v := validate.New(a.storage, a.logger)
		if err := v.ValidateLegacy(cmd.Context(), checkDataDir); err != nil {
			return err
		}
		color.Green("todas as familias de agregados conferem")
		return nil
	},
}

func init() {
	legacyLoadCmd.Flags().StringVar(&legacyDataDir, "data-dir", "data", "diretorio dos arquivos do snapshot")
	legacyLoadCmd.Flags().StringVar(&legacyExportsDir, "exports-dir", "", "diretorio dos exports CSV do portal (gestores)")

	reprocessCmd.Flags().StringVar(&reprocessDataDir, "data-dir", "data", "diretorio dos arquivos de dados")
	reprocessCmd.Flags().BoolVar(&reprocessTruncate, "truncate", false, "trunca as tabelas reconciliadas antes de recarregar")

	liveSyncCmd.Flags().StringVar(&syncSource, "source", "", "fonte: prefeitura, camara, tce ou contexto")
	liveSyncCmd.Flags().StringVar(&syncBaseURL, "base-url", "", "endereco base da fonte (sobrepoe o padrao)")
	liveSyncCmd.Flags().StringVar(&syncDataDir, "data-dir", "data", "diretorio onde o snapshot de contexto e gravado")
	liveSyncCmd.Flags().StringVar(&syncCodigoIBGE, "codigo-ibge", "2414106", "codigo IBGE do municipio")
	liveSyncCmd.Flags().StringVar(&syncCodigoMunicipio, "codigo-municipio", "2414106", "codigo do municipio no TCE-RN")
	liveSyncCmd.Flags().StringVar(&syncCamaraURL, "camara-url", "", "endereco base do portal da camara (contexto)")
	liveSyncCmd.Flags().StringVar(&syncCamaraPortalURL, "camara-portal-url",
		"https://www.portalcr2.com.br/detalhes-parlamentar/tibau-do-sul",
		"pagina parlamentar consultada via init/data do Portal CR2 (contexto)")
	liveSyncCmd.MarkFlagRequired("source")

	consistencyCheckCmd.Flags().StringVar(&checkDataDir, "data-dir", "data", "diretorio dos arquivos do snapshot")

	rootCmd.AddCommand(legacyLoadCmd, reprocessCmd, liveSyncCmd, consistencyCheckCmd)
}
