package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/p2panda/p2panda-go/authgraph"
	"github.com/p2panda/p2panda-go/config"
	"github.com/p2panda/p2panda-go/crypto"
	"github.com/p2panda/p2panda-go/hash"
	"github.com/p2panda/p2panda-go/identity"
	"github.com/p2panda/p2panda-go/internal/plog"
	"github.com/p2panda/p2panda-go/keybundle"
	"github.com/p2panda/p2panda-go/operation"
	"github.com/p2panda/p2panda-go/orderer"
	"github.com/p2panda/p2panda-go/spaces"
	"github.com/p2panda/p2panda-go/store"
)

var app *cli.App

func init() {
	app = cli.NewApp()
	app.Name = "p2panda-demo"
	app.Usage = "end-to-end walkthrough: identities, a store+orderer log, and an encrypted space"
	app.Commands = []*cli.Command{commandWalkthrough}
}

var configFlag = &cli.StringFlag{
	Name:  "config",
	Usage: "path to a TOML config file (optional, defaults are used otherwise)",
}

var commandWalkthrough = &cli.Command{
	Name:  "walkthrough",
	Usage: "create two identities, publish their membership to a log, and exchange an encrypted message",
	Flags: []cli.Flag{configFlag},
	Action: func(ctx *cli.Context) error {
		cfg := config.Default()
		if path := ctx.String(configFlag.Name); path != "" {
			loaded, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg = loaded
		}
		return runWalkthrough(cfg)
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runWalkthrough wires the store, the causal orderer, and a spaces.Manager
// together: owner's membership publication is logged and ordered like any
// other operation, while the actual group-membership and encryption state
// lives in the Manager, mirroring how an application built on this module
// would layer its own domain state on top of the shared log.
func runWalkthrough(cfg config.Config) error {
	log := plog.New(zapcore.InfoLevel)
	r := crypto.NewOSRand()

	owner, ownerPriv := identity.Generate(r)
	alice, alicePriv := identity.Generate(r)
	defer ownerPriv.Zero()
	defer alicePriv.Zero()
	log.Info("generated identities", "owner", owner.String(), "alice", alice.String())

	ownerBundle := keybundle.NewPrivateBundle(ownerPriv, r, time.Now())
	aliceBundle := keybundle.NewPrivateBundle(alicePriv, r, time.Now())

	sessionKey, x3dhHeader, err := keybundle.InitiateX3DH(ownerBundle, aliceBundle.LongTermBundle(), nil, r)
	if err != nil {
		return fmt.Errorf("X3DH initiate: %w", err)
	}
	aliceSessionKey, err := keybundle.RespondX3DH(aliceBundle, x3dhHeader)
	if err != nil {
		return fmt.Errorf("X3DH respond: %w", err)
	}
	ownerToAlice := keybundle.NewSenderSession(sessionKey)
	aliceFromOwner := keybundle.NewReceiverSession(aliceSessionKey)
	log.Info("completed X3DH handshake", "from", owner.String(), "to", alice.String())

	backend := store.NewMemStore(256)
	queue := orderer.New()
	logMembershipEvent(context.Background(), log, backend, queue, ownerPriv, "space notes created by owner")

	manager := spaces.NewManager[string](owner)
	mut, err := manager.CreateSpace("notes", opID("create-notes"),
		[]identity.PublicKey{owner, alice},
		[]authgraph.Access{authgraph.Manage, cfg.DefaultAccessLevel()},
		map[identity.PublicKey]*keybundle.SenderSession{alice: ownerToAlice}, r)
	if err != nil {
		return fmt.Errorf("CreateSpace: %w", err)
	}
	for _, e := range mut.Events {
		log.Info("space event", "kind", int(e.Kind()))
	}

	aliceManager := spaces.NewManager[string](alice)
	if _, err := aliceManager.Process("notes", spaces.InboundAuth{Message: mut.Auth}); err != nil {
		return fmt.Errorf("alice processing auth create: %w", err)
	}
	if _, err := aliceManager.Process("notes", spaces.InboundControl{Message: mut.Control, FromSender: aliceFromOwner}); err != nil {
		return fmt.Errorf("alice processing welcome: %w", err)
	}

	logMembershipEvent(context.Background(), log, backend, queue, ownerPriv, "owner sends a message in space notes")

	epoch, generation, ciphertext, err := encryptForSpace(manager, "notes", []byte("hello from the owner"))
	if err != nil {
		return fmt.Errorf("encrypting application message: %w", err)
	}

	events, err := aliceManager.Process("notes", spaces.InboundCiphertext{
		Sender: owner, Epoch: epoch, Generation: generation, Ciphertext: ciphertext,
	})
	if err != nil {
		return fmt.Errorf("alice decrypting application message: %w", err)
	}
	for _, e := range events {
		if decrypted, ok := e.(spaces.MessageDecrypted); ok {
			log.Info("alice decrypted message", "plaintext", string(decrypted.Plaintext))
		}
	}

	return nil
}

func opID(label string) hash.Hash {
	return hash.Of([]byte(label))
}

// encryptForSpace produces an application ciphertext for space id through
// the Manager's public Encrypt method.
func encryptForSpace(m *spaces.Manager[string], id string, plaintext []byte) (epoch, generation uint64, ciphertext []byte, err error) {
	return m.Encrypt(id, plaintext, nil)
}

// logMembershipEvent signs, stores, and runs one record through the causal
// orderer, purely to exercise the store+orderer pipeline alongside the
// spaces.Manager's own state — this demo does not define a wire encoding
// for control messages, so the log body here is a human-readable label
// rather than the actual forged authgraph/DCGKA message bytes.
func logMembershipEvent(ctx context.Context, log *plog.Logger, backend *store.MemStore, queue *orderer.Processor, signer *identity.PrivateKey, label string) {
	tip, err := backend.LogTip(ctx, signer.Public(), "")
	var seqNum uint64
	var backlink *hash.Hash
	if err == nil {
		seqNum = tip.SeqNum + 1
		backlink = &tip.Hash
	}

	op, err := operation.SignAndBuild(signer, seqNum, backlink, nil, uint64(time.Now().Unix()), operation.Body(label), nil)
	if err != nil {
		log.Error("failed to build log entry", "err", err)
		return
	}
	if err := backend.Insert(ctx, op); err != nil {
		log.Error("failed to store log entry", "err", err)
		return
	}
	queue.Process(op)
	delivered, err := queue.Next(ctx)
	if err != nil {
		log.Error("orderer did not deliver entry", "err", err)
		return
	}
	log.Info("log entry ordered", "label", label, "seq", delivered.Header.SeqNum)
}
