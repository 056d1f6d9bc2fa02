package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/leandrodaf/midihex/internal/hexline"
	"github.com/leandrodaf/midihex/internal/logger"
	"github.com/leandrodaf/midihex/sdk/contracts"
	"github.com/leandrodaf/midihex/sdk/midi"
	"github.com/leandrodaf/midihex/sdk/ports"
)

func main() {
	log := logger.NewZapLogger()

	drv, err := midi.NewDriver(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
	)
	if err != nil {
		log.Error("Failed to initialize MIDI driver", log.Field().Error("error", err))
		return
	}
	defer drv.Close()

	inputs, err := ports.List(drv, contracts.Input)
	if err != nil || len(inputs) == 0 {
		log.Error("No MIDI inputs found or error listing ports", log.Field().Error("error", err))
		return
	}
	fmt.Println("Available MIDI inputs:", inputs)

	eventChannel := make(chan contracts.Message, 100)
	conn, err := drv.OpenInput(inputs[0], func(m contracts.Message) {
		select {
		case eventChannel <- m:
		default:
			log.Warn("Event buffer full; dropping MIDI message")
		}
	})
	if err != nil {
		log.Error("Failed to open MIDI input", log.Field().Error("error", err))
		return
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("Capturing MIDI messages... Press Ctrl+C to exit.")
	opts := contracts.FormatOptions{ShowTimestamp: true, ShowSize: true}
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-eventChannel:
			fmt.Print(hexline.Format(m.Timestamp, m.Data, opts))
		}
	}
}
