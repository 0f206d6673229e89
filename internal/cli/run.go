package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lattice-labs/xcrawl/internal/config"
	"github.com/lattice-labs/xcrawl/internal/crawl"
	"github.com/lattice-labs/xcrawl/internal/ioutil"
	"github.com/lattice-labs/xcrawl/internal/jsonlsink"
	"github.com/lattice-labs/xcrawl/internal/obslog"
	"github.com/lattice-labs/xcrawl/internal/protocol"
	"github.com/lattice-labs/xcrawl/internal/session"
	"github.com/lattice-labs/xcrawl/internal/txnsign"
)

func newRunCommand() *cobra.Command {
	var accountsPath, keywordsPath, startDate, endDate string
	var cookiesFiles []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Crawl every (account, keyword) pair and write matching posts to a run directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd.Context(), runArgs{
				accountsPath: accountsPath,
				keywordsPath: keywordsPath,
				startDate:    startDate,
				endDate:      endDate,
				cookiesFiles: cookiesFiles,
			})
		},
	}

	cmd.Flags().StringVar(&accountsPath, "accounts", "", "path to the newline-delimited account handle file (required)")
	cmd.Flags().StringVar(&keywordsPath, "keywords", "", "path to the newline-delimited keyword file (required)")
	cmd.Flags().StringVar(&startDate, "start", "", "start date, format YYYY_M_D (required)")
	cmd.Flags().StringVar(&endDate, "end", "", "end date, format YYYY_M_D (required)")
	cmd.Flags().StringArrayVar(&cookiesFiles, "cookies-file", nil, "path to a session cookie jar; repeat to drive several logged-in identities concurrently (falls back to --cookies if unset)")
	cmd.MarkFlagRequired("accounts")
	cmd.MarkFlagRequired("keywords")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")

	return cmd
}

type runArgs struct {
	accountsPath string
	keywordsPath string
	startDate    string
	endDate      string
	cookiesFiles []string
}

// sessionIdentity bundles one logged-in identity's protocol client and
// session plumbing; runCrawl builds one per --cookies-file.
type sessionIdentity struct {
	path   string
	holder *protocol.CredentialsHolder
	client *protocol.Client
	mgr    *session.Manager
	probe  session.Probe
}

func newSessionIdentity(cfg config.Config, path string, txnGen *txnsign.Generator, log zerolog.Logger) *sessionIdentity {
	holder := &protocol.CredentialsHolder{}
	client := protocol.New(cfg, holder, txnGen, protocol.NewGuestID(), log)
	probe := func(ctx context.Context, jar session.Jar) error {
		holder.Set(jar)
		return client.VerifyCredentials(ctx)
	}
	return &sessionIdentity{
		path:   path,
		holder: holder,
		client: client,
		mgr:    session.NewManager(path, session.FileCookieProvider{Path: path}, log),
		probe:  probe,
	}
}

// runCrawl is the Outer Driver: it wires a session, builds a protocol
// client, then crawls every (account, keyword) pair, retrying a pair
// exactly once after a fresh session refresh if it fails authentication.
func runCrawl(ctx context.Context, args runArgs) error {
	cfg, err := config.Load(flagEnvFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	accounts, err := ioutil.LoadAccounts(args.accountsPath)
	if err != nil {
		return err
	}
	keywords, err := ioutil.LoadKeywords(args.keywordsPath)
	if err != nil {
		return err
	}

	start, err := crawl.ParseCLIDate(args.startDate)
	if err != nil {
		return err
	}
	end, err := crawl.ParseCLIDate(args.endDate)
	if err != nil {
		return err
	}
	window := crawl.DateWindow{Start: start, End: end, Timezone: cfg.Timezone}

	startedAt := time.Now()
	sink, err := jsonlsink.Open(flagOutputDir, startedAt, len(accounts), len(keywords))
	if err != nil {
		return err
	}

	log, logFile, err := obslog.New(sink.RunDir(), flagDebug)
	if err != nil {
		return err
	}
	defer logFile.Close()

	txnGen := txnsign.New(txnsign.DefaultConfig())

	cookiesFiles := args.cookiesFiles
	if len(cookiesFiles) == 0 {
		cookiesFiles = []string{flagCookiePath}
	}

	identities := make([]*sessionIdentity, len(cookiesFiles))
	for i, path := range cookiesFiles {
		identities[i] = newSessionIdentity(cfg, path, txnGen, log)
	}

	if len(identities) == 1 {
		id := identities[0]
		jar, err := id.mgr.Ensure(ctx, id.probe)
		if err != nil {
			return fmt.Errorf("establish session: %w", err)
		}
		id.holder.Set(jar)
	} else {
		managers := make(map[string]*session.Manager, len(identities))
		probes := make(map[string]session.Probe, len(identities))
		for _, id := range identities {
			managers[id.path] = id.mgr
			probes[id.path] = id.probe
		}

		pool := session.NewPool(int64(len(identities)))
		entries, err := pool.EnsureAll(ctx, managers, probes)
		if err != nil {
			return fmt.Errorf("establish pooled sessions: %w", err)
		}
		byPath := make(map[string]session.Jar, len(entries))
		for _, entry := range entries {
			byPath[entry.AccountHandle] = entry.Jar
		}
		for _, id := range identities {
			id.holder.Set(byPath[id.path])
		}
	}

	pairIdx := 0
	for _, account := range accounts {
		for _, keyword := range keywords {
			id := identities[pairIdx%len(identities)]
			pairIdx++

			log.Info().Str("account", account.Handle).Str("keyword", keyword.Phrase).Str("cookies", id.path).Msg("crawling")
			err := crawlOnePair(ctx, id.client, id.mgr, id.probe, account, keyword, window, sink)
			if err != nil {
				log.Error().Err(err).Str("account", account.Handle).Str("keyword", keyword.Phrase).Msg("pair failed")
				_ = sink.Write(crawl.ErrorRecord(account.Handle, keyword.Phrase, err.Error()), true)
			}
		}
	}

	return sink.Close(time.Now())
}

// crawlOnePair runs one (account, keyword) crawl, refreshing the session
// exactly once and retrying if the first attempt hits an authentication
// error.
func crawlOnePair(ctx context.Context, client *protocol.Client, mgr *session.Manager, probe session.Probe, account ioutil.AccountSpec, keyword ioutil.KeywordRule, window crawl.DateWindow, sink *jsonlsink.Sink) error {
	params := crawl.Params{AccountHandle: account.Handle, Keyword: keyword.Phrase, Window: window}

	emit := func(rec crawl.Record) {
		_ = sink.Write(rec, false)
	}

	err := crawl.Crawl(ctx, client, params, emit)
	if err == nil {
		return nil
	}

	var authErr *protocol.AuthenticationError
	if !errors.As(err, &authErr) {
		return err
	}

	if _, refreshErr := mgr.Refresh(ctx, probe); refreshErr != nil {
		return fmt.Errorf("refresh session after auth error: %w", refreshErr)
	}

	return crawl.Crawl(ctx, client, params, emit)
}
