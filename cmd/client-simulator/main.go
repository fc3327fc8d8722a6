package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/duobet/couple-bets-platform/internal/api/dto"
	"github.com/duobet/couple-bets-platform/internal/identity"
	"github.com/duobet/couple-bets-platform/internal/shared/config"
	"github.com/duobet/couple-bets-platform/internal/shared/logger"
	"github.com/duobet/couple-bets-platform/pkg/contracts/events"
)

// Simulador de cliente: percorre o fluxo inteiro do app contra a API real.
// Cria o casal, entra com o segundo membro, aposta, aprova, conclui e
// imprime o placar, escutando o feed realtime no caminho.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var e dto.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return errors.New(method + " " + path + ": " + resp.Status + " " + e.Error)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func main() {
	cfg := config.Load()
	log, err := logger.New("client-simulator", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	httpc := &http.Client{Timeout: 10 * time.Second}
	ana := &apiClient{base: cfg.APIBaseURL, http: httpc}
	beto := &apiClient{base: cfg.APIBaseURL, http: httpc}

	// O primeiro membro persiste a sessão igual o app faria
	tokens := identity.NewFileStore(cfg.TokenStore)

	// 1) Ana abre o casal
	var enr dto.EnrollmentResponse
	if err := ana.do(ctx, http.MethodPost, "/v1/couples", dto.CreateCoupleRequest{Name: "Ana"}, &enr); err != nil {
		log.Fatal("create couple", zap.Error(err))
	}
	ana.token = enr.Token
	if err := tokens.Save(enr.Token); err != nil {
		log.Warn("token store", zap.Error(err))
	}
	code := enr.Couple.CoupleCode
	coupleID := enr.Couple.ID
	log.Info("couple created", zap.String("code", code))

	// feed realtime do casal, em paralelo com o resto do fluxo
	go watchFeed(ctx, log, cfg.RealtimeWSURL, coupleID)

	// 2) Beto entra pelo código
	var joined dto.EnrollmentResponse
	if err := beto.do(ctx, http.MethodPost, "/v1/couples/join", dto.JoinCoupleRequest{Name: "Beto", CoupleCode: code}, &joined); err != nil {
		log.Fatal("join couple", zap.Error(err))
	}
	beto.token = joined.Token
	log.Info("partner joined", zap.String("partnerId", joined.User.ID))

	// 3) Ana cria a aposta (nasce pending quando aprovação é exigida)
	var created dto.BetResponse
	bet := dto.CreateBetRequest{
		Title:         "Quem cozinha no sábado",
		Amount:        "500",
		OptionA:       "Pizza",
		OptionB:       "Sushi",
		CreatorChoice: "a",
	}
	if err := ana.do(ctx, http.MethodPost, "/v1/bets", bet, &created); err != nil {
		log.Fatal("create bet", zap.Error(err))
	}
	log.Info("bet created", zap.String("betId", created.ID), zap.String("status", created.Status))

	// 4) Beto aprova, se o fluxo pediu aprovação
	if created.Status == "pending" {
		var approved dto.BetResponse
		if err := beto.do(ctx, http.MethodPost, "/v1/bets/"+created.ID+"/approve", nil, &approved); err != nil {
			log.Fatal("approve bet", zap.Error(err))
		}
		log.Info("bet approved", zap.String("status", approved.Status))
	}

	// 5) Ana conclui dando a vitória pro palpite do Beto
	var concluded dto.BetResponse
	if err := ana.do(ctx, http.MethodPost, "/v1/bets/"+created.ID+"/conclude", dto.ConcludeBetRequest{WinnerOption: "b"}, &concluded); err != nil {
		log.Fatal("conclude bet", zap.Error(err))
	}
	log.Info("bet concluded", zap.String("winner", concluded.WinnerOption))

	// 6) placar final dos dois lados
	printStats(ctx, ana, "ana")
	printStats(ctx, beto, "beto")

	// deixa o feed drenar os últimos eventos antes de sair
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
	}
	log.Info("simulation done")
}

func printStats(ctx context.Context, c *apiClient, who string) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/v1/stats", nil, &raw); err != nil {
		fmt.Fprintf(os.Stderr, "stats %s: %v\n", who, err)
		return
	}
	fmt.Printf("stats[%s]: %s\n", who, raw)
}

// watchFeed assina o canal do casal no realtime-service e loga cada evento
func watchFeed(ctx context.Context, log *zap.Logger, wsURL, coupleID string) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		log.Warn("ws dial failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := map[string]string{"type": "subscribe", "coupleId": coupleID}
	if err := conn.WriteJSON(sub); err != nil {
		log.Warn("ws subscribe failed", zap.Error(err))
		return
	}

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var ev events.BetChanged
		if err := conn.ReadJSON(&ev); err != nil {
			return
		}
		log.Info("feed event",
			zap.String("op", ev.Op),
			zap.String("betId", ev.BetID),
			zap.String("status", ev.Status),
		)
	}
}
