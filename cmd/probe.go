package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/voltpath/vlink/auth"
	"github.com/voltpath/vlink/config"
	"github.com/voltpath/vlink/core/session"
	"github.com/voltpath/vlink/infra/bootstrap"
)

var probeTimeout time.Duration

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Run the bootstrap handshake without opening a broker session",
	RunE:  runProbe,
}

func init() {
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 10*time.Second, "overall probe timeout")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var tokens session.TokenProvider
	if cfg.Auth.StaticToken != "" {
		tokens = auth.StaticToken(cfg.Auth.StaticToken)
	} else {
		tokens = auth.NewClientCred(cfg.Auth.Conf())
	}
	boot := bootstrap.NewClient(cfg.Bootstrap, tokens)

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	host, err := boot.DiscoverHost(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "host: %s\n", host.BrokerURL())

	reg, err := boot.RegisterDevice(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "client: %s device: %s\n", reg.ClientID, reg.DeviceID)

	metas, err := boot.FetchVehicleMetadata(ctx, cfg.Session.VehicleID, reg.ClientID)
	if err != nil {
		return err
	}
	for _, m := range metas {
		if m.VehicleID != cfg.Session.VehicleID {
			continue
		}
		for _, p := range m.Protocols {
			fmt.Fprintf(cmd.OutOrStdout(), "protocol: %s topic: %s\n", p.ID, p.Topic(m.VehicleID))
		}
	}
	return nil
}
