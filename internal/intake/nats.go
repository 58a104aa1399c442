// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

//go:build nats

package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/guardian/internal/logging"
)

// ErrNATSNotAvailable is returned when the binary was built without NATS.
var ErrNATSNotAvailable = errors.New("NATS transport not available: build with -tags=nats")

// startEmbedded starts an in-process JetStream server and returns its
// client URL.
func startEmbedded(cfg NATSConfig) (*server.Server, error) {
	ns, err := server.NewServer(&server.Options{
		ServerName: "guardian",
		Host:       "127.0.0.1",
		Port:       cfg.Port,
		JetStream:  true,
		StoreDir:   cfg.StoreDir,
		MaxPayload: 1024 * 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	ns.ConfigureLogger()
	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within timeout")
	}
	return ns, nil
}

// ensureStream creates or updates the stream holding the event and poison
// subjects.
func ensureStream(ctx context.Context, url string, cfg Config) error {
	nc, err := natsgo.Connect(url)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}

	subjects := []string{cfg.Topic}
	if cfg.PoisonTopic != "" {
		subjects = append(subjects, cfg.PoisonTopic)
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.NATS.StreamName,
		Subjects:  subjects,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   jetstream.FileStorage,
		Discard:   jetstream.DiscardOld,
	})
	if err != nil {
		return fmt.Errorf("ensure stream %s: %w", cfg.NATS.StreamName, err)
	}
	return nil
}

// NewNATSTransport creates a JetStream transport, starting an embedded
// server first when configured.
func NewNATSTransport(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (*Transport, error) {
	if logger == nil {
		logger = NewLogger()
	}
	t := &Transport{name: TransportNATS}

	url := cfg.NATS.URL
	if cfg.NATS.Embedded {
		ns, err := startEmbedded(cfg.NATS)
		if err != nil {
			return nil, err
		}
		t.closers = append(t.closers, func() error {
			ns.Shutdown()
			ns.WaitForShutdown()
			return nil
		})
		url = ns.ClientURL()
		logging.Info().Str("url", url).Str("store_dir", cfg.NATS.StoreDir).Msg("embedded NATS server started")
	}

	if err := ensureStream(ctx, url, cfg); err != nil {
		_ = t.Close()
		return nil, err
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.NATS.MaxReconnects),
		natsgo.ReconnectWait(cfg.NATS.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	t.publisher = pub
	t.closers = append(t.closers, pub.Close)

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		QueueGroupPrefix: cfg.NATS.QueueGroup,
		SubscribersCount: cfg.NATS.Subscribers,
		AckWaitTimeout:   cfg.NATS.AckWait,
		CloseTimeout:     cfg.Router.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.MaxDeliver(cfg.NATS.MaxDeliver),
				natsgo.AckWait(cfg.NATS.AckWait),
				natsgo.DeliverNew(),
				natsgo.BindStream(cfg.NATS.StreamName),
			},
			DurablePrefix: cfg.NATS.DurableName,
		},
	}, logger)
	if err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}
	t.subscriber = sub
	t.closers = append(t.closers, sub.Close)

	logging.Info().
		Str("url", url).
		Str("stream", cfg.NATS.StreamName).
		Str("topic", cfg.Topic).
		Msg("NATS transport ready")
	return t, nil
}
