package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/connector"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

// ContextoParams configures the context-snapshot sync. The portal base
// URLs are optional; whatever is reachable goes into the snapshot.
type ContextoParams struct {
	DataDir           string
	CodigoIBGE        string
	PrefeituraBaseURL string
	CamaraBaseURL     string
	CamaraPortalURL   string
}

type contextoSnapshot struct {
	GeradoEm     time.Time                        `json:"gerado_em"`
	Municipio    *connector.MunicipioContexto     `json:"municipio,omitempty"`
	MesaDiretora json.RawMessage                  `json:"mesa_diretora,omitempty"`
	Comissoes    json.RawMessage                  `json:"comissoes,omitempty"`
	CamaraPortal json.RawMessage                  `json:"camara_portal,omitempty"`
	Operacionais map[string]connector.ProbeResult `json:"operacionais,omitempty"`
}

// SyncContexto assembles the municipality context snapshot: IBGE
// demographics, the council's board and committees, and the probing
// results for the operational datasets. The snapshot is a file, not
// reconciled rows; only its provenance lands in the store.
func (p *Pipeline) SyncContexto(ctx context.Context, params ContextoParams) (*store.SyncRun, int, error) {
	const component = "pipeline.contexto"

	run, err := p.tracker.Start(ctx, FonteContexto)
	if err != nil {
		return nil, 0, err
	}

	fail := func(stepErr error) (*store.SyncRun, int, error) {
		p.tracker.Fail(ctx, run, stepErr)
		return run, 0, stepErr
	}

	snapshot := contextoSnapshot{GeradoEm: time.Now()}
	total := 0

	if params.CodigoIBGE != "" {
		municipio, err := connector.NewIBGE(p.client).Contexto(ctx, params.CodigoIBGE)
		if err != nil {
			p.logger.Warn(component, "contexto IBGE indisponivel: %v", err)
		} else {
			snapshot.Municipio = municipio
			total++
		}
	}

	if params.CamaraBaseURL != "" {
		camara := connector.NewCamara(p.client, params.CamaraBaseURL)
		if mesa, err := camara.Mesa(ctx); err != nil {
			p.logger.Warn(component, "mesa diretora indisponivel: %v", err)
		} else {
			snapshot.MesaDiretora = mesa
			total++
		}
		if comissoes, err := camara.Comissoes(ctx); err != nil {
			p.logger.Warn(component, "comissoes indisponiveis: %v", err)
		} else {
			snapshot.Comissoes = comissoes
			total++
		}
	}

	if params.CamaraPortalURL != "" {
		payload, err := connector.NewPortalCR2(p.client).InitData(ctx, params.CamaraPortalURL)
		if err != nil {
			p.logger.Warn(component, "portal CR2 indisponivel: %v", err)
		} else {
			snapshot.CamaraPortal = payload
			total++
		}
	}

	if params.PrefeituraBaseURL != "" {
		pref := connector.NewPrefeitura(p.client, params.PrefeituraBaseURL)
		snapshot.Operacionais = pref.Operacionais(ctx, ExercicioReferencia)
		for nome, result := range snapshot.Operacionais {
			if result.OK {
				p.logger.Info(component, "dataset operacional %s: %d linhas via %s", nome, len(result.Rows), result.URL)
				total++
			}
		}
	}

	encoded, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fail(err)
	}
	path := filepath.Join(params.DataDir, FileContexto)
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fail(err)
	}
	if err := p.recordProvenance(ctx, "contexto", "contexto:"+params.CodigoIBGE, FonteContexto, FileContexto, encoded); err != nil {
		return fail(err)
	}

	if err := p.tracker.Succeed(ctx, run, total); err != nil {
		return run, total, err
	}
	p.logger.Info(component, "contexto municipal gravado em %s", path)
	return run, total, nil
}
