package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/env"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/monitor"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/risk"
)

var (
	maxTaxaFalha  float64
	maxLatenciaMs float64
)

var riskScanCmd = &cobra.Command{
	Use:   "risk-scan",
	Short: "Varre os dados reconciliados e regenera os alertas de risco",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		engine := risk.New(a.storage, a.logger)
		total, err := engine.GenerateAlerts(cmd.Context())
		if err != nil {
			return fmt.Errorf("varredura de risco: %w", err)
		}
		if total == 0 {
			color.Green("varredura concluida: nenhum alerta")
			return nil
		}
		color.Yellow("varredura concluida: %d alertas gerados", total)
		return nil
	},
}

var healthCheckCmd = &cobra.Command{
	Use:   "health-check",
	Short: "Avalia a saúde das execuções recentes e registra alertas operacionais",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		m := monitor.New(a.storage, a.logger)

		swept, err := m.SweepStuck(ctx)
		if err != nil {
			return fmt.Errorf("varredura de execucoes travadas: %w", err)
		}
		if swept > 0 {
			color.Yellow("%d execucoes travadas encerradas", swept)
		}

		metrics, err := m.Metrics(ctx)
		if err != nil {
			return fmt.Errorf("metricas: %w", err)
		}
		for _, metric := range metrics {
			fmt.Printf("%-20s total=%-3d falhas=%-3d taxa=%.2f%% latencia=%.0fms ultimo=%s\n",
				metric.Fonte, metric.Total, metric.Falhas, metric.TaxaFalha,
				metric.LatenciaMediaMs, metric.UltimoStatus)
		}

		created, err := m.CheckHealth(ctx, maxTaxaFalha, maxLatenciaMs)
		if err != nil {
			return fmt.Errorf("verificacao de saude: %w", err)
		}
		if created == 0 {
			color.Green("todas as fontes dentro dos limites")
			return nil
		}
		color.Red("%d alertas operacionais registrados", created)
		return nil
	},
}

func init() {
	healthCheckCmd.Flags().Float64Var(&maxTaxaFalha, "max-failure-rate",
		env.GetFloat("MAX_FAILURE_RATE", 10), "taxa de falha maxima por fonte, em %")
	healthCheckCmd.Flags().Float64Var(&maxLatenciaMs, "max-latency-ms",
		env.GetFloat("MAX_LATENCY_MS", 60000), "latencia media maxima por fonte, em ms")

	rootCmd.AddCommand(riskScanCmd, healthCheckCmd)
}
