package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var messagesSent = promauto.NewCounter(prometheus.CounterOpts{
	Name: "weibo_messages_sent_total",
	Help: "Trending summaries delivered to the channel.",
})

// Sender 把格式化好的消息发到频道
type Sender interface {
	Send(ctx context.Context, text string) error
}

// TelegramSender 通过 Bot API 发消息。BotAPI 在第一次发送时才创建，
// 这样 Telegram 暂时不可达只会让本轮失败并进入重试
type TelegramSender struct {
	token    string
	channel  string
	endpoint string
	client   *http.Client
	logger   *zap.Logger

	mu  sync.Mutex
	api *tgbotapi.BotAPI
}

// NewTelegramSender channel 可以是 @频道名 或者数字 chat id；endpoint 为空时用官方地址
func NewTelegramSender(token, channel, endpoint string, client *http.Client, logger *zap.Logger) *TelegramSender {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TelegramSender{
		token:    token,
		channel:  channel,
		endpoint: endpoint,
		client:   client,
		logger:   logger,
	}
}

func (s *TelegramSender) botAPI() (*tgbotapi.BotAPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.api != nil {
		return s.api, nil
	}
	api, err := tgbotapi.NewBotAPIWithClient(s.token, s.endpoint, s.client)
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot: %w", err)
	}
	s.api = api
	return api, nil
}

func (s *TelegramSender) Send(_ context.Context, text string) error {
	api, err := s.botAPI()
	if err != nil {
		return err
	}

	msg := newChannelMessage(s.channel, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	sent, err := api.Send(msg)
	if err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	messagesSent.Inc()
	s.logger.Info("telegram message sent", zap.String("channel", s.channel), zap.Int("message_id", sent.MessageID))
	return nil
}

func newChannelMessage(channel, text string) tgbotapi.MessageConfig {
	if !strings.HasPrefix(channel, "@") {
		if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
			return tgbotapi.NewMessage(id, text)
		}
	}
	return tgbotapi.NewMessageToChannel(channel, text)
}
