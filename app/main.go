package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/convtrack/app/job"
	"github.com/umputun/convtrack/app/notify"
	"github.com/umputun/convtrack/app/remote"
	"github.com/umputun/convtrack/app/resumer"
	"github.com/umputun/convtrack/app/service"
	"github.com/umputun/convtrack/app/store"
	"github.com/umputun/convtrack/app/tracker"
	"github.com/umputun/convtrack/app/web"
)

type options struct {
	Server       string `short:"s" long:"server" env:"CONVTRACK_SERVER" default:"http://localhost:5000" description:"conversion server url"`
	Input        string `short:"i" long:"input" env:"CONVTRACK_INPUT" description:"video file to convert"`
	Format       string `short:"f" long:"format" env:"CONVTRACK_FORMAT" default:"av1" description:"output format, av1, avif, webp, mp4 or gif"`
	Output       string `short:"o" long:"output" env:"CONVTRACK_OUTPUT" description:"output file name requested from the server"`
	Clip         string `long:"clip" env:"CONVTRACK_CLIP" description:"cut start:end seconds out of the input instead of converting"`
	Cancel       bool   `long:"cancel" description:"cancel active job"`
	History      bool   `long:"history" description:"show conversion history"`
	Queue        bool   `long:"queue" description:"show number of queued jobs on the server"`
	Dismiss      bool   `long:"dismiss" description:"dismiss completed result"`
	AutoDownload string `long:"auto-download" choice:"on" choice:"off" description:"set auto-download preference"`
	DownloadDir  string `long:"download-dir" env:"CONVTRACK_DOWNLOAD_DIR" default:"." description:"directory for downloaded outputs"`
	Profile      string `short:"p" long:"profile" env:"CONVTRACK_PROFILE" default:"auto" description:"polling profile, auto, standard, constrained or custom"`
	ProfilesFile string `long:"profiles" env:"CONVTRACK_PROFILES" description:"yaml file with polling profiles overrides"`
	ProfilesJSON bool   `long:"profiles-schema" description:"print json schema of profiles overrides file and exit"`
	Dbg          bool   `long:"dbg" env:"CONVTRACK_DEBUG" description:"debug mode"`

	Paths struct {
		Start  string `long:"start" env:"START" default:"/start" description:"start-job path"`
		Status string `long:"status" env:"STATUS" default:"/progress/%s" description:"job-status path, %s replaced by job id"`
		Cancel string `long:"cancel" env:"CANCEL" default:"/cancel/%s" description:"cancel-job path, %s replaced by job id"`
		Queue  string `long:"queue" env:"QUEUE" default:"/queue" description:"queue-depth path"`

		ClipStart  string `long:"clip-start" env:"CLIP_START" default:"/clip/start" description:"start-clip path"`
		ClipStatus string `long:"clip-status" env:"CLIP_STATUS" default:"/clip/progress/%s" description:"clip-status path, %s replaced by job id"`
		ClipClear  string `long:"clip-clear" env:"CLIP_CLEAR" default:"/clip/clear_cache/%s" description:"clip clear-cache path, %s replaced by job id"`
	} `group:"paths" namespace:"paths" env-namespace:"CONVTRACK_PATHS"`

	Store struct {
		Type          string        `long:"type" env:"TYPE" choice:"sqlite" choice:"redis" choice:"memory" default:"sqlite" description:"cache backend"`
		Path          string        `long:"path" env:"PATH" default:"convtrack.db" description:"sqlite file"`
		RedisURL      string        `long:"redis-url" env:"REDIS_URL" default:"redis://localhost:6379/0" description:"redis url"`
		RedisPrefix   string        `long:"redis-prefix" env:"REDIS_PREFIX" default:"convtrack" description:"redis keys prefix"`
		TTL           time.Duration `long:"ttl" env:"TTL" default:"24h" description:"cache entries ttl"`
		HistorySize   int           `long:"history-size" env:"HISTORY_SIZE" default:"5" description:"history capacity, 3-5"`
		WatchInterval time.Duration `long:"watch-interval" env:"WATCH_INTERVAL" default:"1s" description:"sqlite changes polling interval"`
		Sweep         string        `long:"sweep" env:"SWEEP" default:"*/10 * * * *" description:"expired entries sweep schedule, web mode only"`
	} `group:"store" namespace:"store" env-namespace:"CONVTRACK_STORE"`

	Notify struct {
		EnabledError       bool          `long:"enabled-error" env:"ENABLED_ERROR" description:"enable notifications on failures"`
		EnabledCompletion  bool          `long:"enabled-complete" env:"ENABLED_COMPLETE" description:"enable completion notifications"`
		ErrorTemplate      string        `long:"err-template" env:"ERR_TEMPLATE" description:"error message template file"`
		CompletionTemplate string        `long:"complete-template" env:"COMPLETE_TEMPLATE" description:"completion message template file"`
		SMTPHost           string        `long:"smtp-host" env:"SMTP_HOST" description:"SMTP host"`
		SMTPPort           int           `long:"smtp-port" env:"SMTP_PORT" default:"25" description:"SMTP port"`
		SMTPUsername       string        `long:"smtp-username" env:"SMTP_USERNAME" description:"SMTP user name"`
		SMTPPassword       string        `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
		SMTPTLS            bool          `long:"smtp-tls" env:"SMTP_TLS" description:"enable SMTP TLS"`
		SMTPTimeOut        time.Duration `long:"smtp-timeout" env:"SMTP_TIMEOUT" default:"10s" description:"SMTP TCP connection timeout"`
		FromEmail          string        `long:"from" env:"FROM" description:"SMTP from email"`
		ToEmails           []string      `long:"to" env:"TO" description:"SMTP to email(s)" env-delim:","`
		SlackToken         string        `long:"slack-token" env:"SLACK_TOKEN" description:"slack token"`
		SlackChannels      []string      `long:"slack-chan" env:"SLACK_CHAN" description:"slack channel(s)" env-delim:","`
		Webhooks           []string      `long:"webhook" env:"WEBHOOK" description:"webhook url(s)" env-delim:","`
		WebhookHeaders     []string      `long:"webhook-header" env:"WEBHOOK_HEADER" description:"webhook header(s), Name:Value" env-delim:","`
		Timeout            time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"notification timeout"`
		HostName           string        `long:"host" env:"HOSTNAME" description:"host name in notifications"`
	} `group:"notify" namespace:"notify" env-namespace:"CONVTRACK_NOTIFY"`

	Web struct {
		Enabled   bool    `long:"enabled" env:"ENABLED" description:"enable status api"`
		Address   string  `long:"address" env:"ADDRESS" default:"127.0.0.1:8090" description:"listen address"`
		AuthHash  string  `long:"auth-hash" env:"AUTH_HASH" description:"bcrypt hash of basic auth password, user convtrack"`
		RateLimit float64 `long:"rate-limit" env:"RATE_LIMIT" default:"5" description:"mutating requests per second"`
	} `group:"web" namespace:"web" env-namespace:"CONVTRACK_WEB"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging"`
		Filename        string `long:"file" env:"FILE" description:"log file, stdout if not set"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max log file size, megabytes"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max log files to keep"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max age of log files, days"`
		EnabledCompress bool   `long:"compress" env:"COMPRESS" description:"compress rotated logs"`
	} `group:"log" namespace:"log" env-namespace:"CONVTRACK_LOG"`
}

var opts options

var revision = "unknown"

// exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	fmt.Printf("convtrack %s\n", revision)

	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(exitUsage)
	}
	setupLogs()

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	gate := tracker.NewGate()
	signals(cancel, gate)

	code, err := run(ctx, gate, os.Stdout)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the application and executes requested commands, returns exit code
func run(ctx context.Context, gate *tracker.Gate, out io.Writer) (int, error) {
	if opts.ProfilesJSON {
		if _, err := out.Write(tracker.ProfilesSchema()); err != nil {
			return exitFailed, fmt.Errorf("failed to write profiles schema: %w", err)
		}
		return exitOK, nil
	}

	format, err := job.ParseFormat(opts.Format)
	if err != nil {
		return exitUsage, err
	}

	var clip *job.ClipRange
	if opts.Clip != "" {
		rng, err := job.ParseClipRange(opts.Clip)
		if err != nil {
			return exitUsage, err
		}
		clip = &rng
	}

	profile, err := makeProfile()
	if err != nil {
		return exitUsage, err
	}
	log.Printf("[INFO] polling profile %s, base %v, max errors %d", profile.Name, profile.BaseInterval, profile.MaxErrors)

	backend, err := makeBackend()
	if err != nil {
		return exitFailed, err
	}
	defer backend.Close()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel() // stop watcher before backend closed

	cache := store.New(backend, store.Options{TTL: opts.Store.TTL, HistorySize: opts.Store.HistorySize})
	go func() {
		if err := cache.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[WARN] cache watch stopped, %v", err)
		}
	}()

	client, err := remote.New(opts.Server, remote.Paths{Start: opts.Paths.Start, Status: opts.Paths.Status,
		Cancel: opts.Paths.Cancel, Queue: opts.Paths.Queue, ClipStart: opts.Paths.ClipStart,
		ClipStatus: opts.Paths.ClipStatus, ClipClear: opts.Paths.ClipClear})
	if err != nil {
		return exitUsage, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := service.New(service.Params{
		Client:        client,
		Cache:         cache,
		Profile:       profile,
		Visibility:    gate,
		Metrics:       tracker.NewMetrics(reg),
		Notifier:      makeNotifier(),
		NotifyTimeout: opts.Notify.Timeout,
		DownloadDir:   opts.DownloadDir,
	})

	rep := &reporter{out: out}
	svc.Tracker().OnProgress(rep.progress)
	var last *tracker.Outcome
	svc.Tracker().OnTerminal(func(o tracker.Outcome) {
		last = &o
		rep.terminal(o)
	})

	done, err := commands(ctx, svc, rep)
	if err != nil {
		return exitFailed, err
	}
	if done && opts.Input == "" && !opts.Web.Enabled {
		return exitOK, nil
	}

	if opts.Web.Enabled {
		srv := web.New(web.Config{Service: svc, Visibility: gate, Registry: reg, PasswordHash: opts.Web.AuthHash,
			Version: revision, RateLimit: opts.Web.RateLimit, Timeout: profile.RequestTimeout})
		go func() {
			if err := srv.Run(ctx, opts.Web.Address); err != nil {
				log.Printf("[ERROR] %v", err)
			}
		}()
		go func() {
			if err := svc.RunSweeper(ctx, opts.Store.Sweep); err != nil {
				log.Printf("[WARN] %v", err)
			}
		}()
	}

	if opts.Input != "" {
		var o tracker.Outcome
		if clip != nil {
			o, err = svc.Clip(ctx, opts.Input, *clip)
		} else {
			o, err = svc.Convert(ctx, opts.Input, format, opts.Output)
		}
		if err != nil {
			return exitFailed, err
		}
		last = &o
	} else {
		decision, err := svc.Resumer(rep.completed, rep.resumed).Run(ctx)
		if err != nil {
			return exitFailed, err
		}
		if decision == resumer.DecisionNone || decision == resumer.DecisionStale {
			fmt.Fprintln(out, "no active conversion")
		}
	}

	if opts.Web.Enabled {
		<-ctx.Done()
	}
	return exitCode(last), nil
}

// commands executes one-shot commands, returns true if any was requested
func commands(ctx context.Context, svc *service.Service, rep *reporter) (bool, error) {
	var done bool
	if opts.AutoDownload != "" {
		svc.SetAutoDownload(opts.AutoDownload == "on")
		fmt.Fprintf(rep.out, "auto-download %s\n", opts.AutoDownload)
		done = true
	}
	if opts.Dismiss {
		svc.Dismiss(ctx)
		fmt.Fprintln(rep.out, "completed result dismissed")
		done = true
	}
	if opts.Cancel {
		err := svc.Cancel(ctx)
		switch {
		case errors.Is(err, service.ErrNoActiveJob):
			fmt.Fprintln(rep.out, "no active job")
		case err != nil:
			return true, fmt.Errorf("cancel failed: %w", err)
		default:
			fmt.Fprintln(rep.out, "conversion cancelled")
		}
		done = true
	}
	if opts.Queue {
		queued, err := svc.QueueDepth(ctx)
		if err != nil {
			return true, fmt.Errorf("can't get queue depth: %w", err)
		}
		fmt.Fprintf(rep.out, "queued: %d\n", queued)
		done = true
	}
	if opts.History {
		rep.history(svc.History())
		done = true
	}
	return done, nil
}

func exitCode(o *tracker.Outcome) int {
	if o == nil {
		return exitOK
	}
	switch o.Kind {
	case tracker.OutcomeFailed:
		if o.UserCancelled {
			return exitOK
		}
		return exitFailed
	case tracker.OutcomeConnectionLost:
		return exitFailed
	}
	return exitOK
}

func makeProfile() (tracker.Profile, error) {
	profiles := tracker.DefaultProfiles()
	if opts.ProfilesFile != "" {
		var err error
		if profiles, err = tracker.LoadProfiles(opts.ProfilesFile); err != nil {
			return tracker.Profile{}, err
		}
	}
	return profiles.Get(opts.Profile)
}

func makeBackend() (store.Backend, error) {
	switch opts.Store.Type {
	case "redis":
		return store.NewRedis(opts.Store.RedisURL, opts.Store.RedisPrefix)
	case "memory":
		return store.NewMemory(), nil
	default:
		return store.NewSQLite(opts.Store.Path, opts.Store.WatchInterval)
	}
}

func makeNotifier() *notify.Service {
	if !opts.Notify.EnabledError && !opts.Notify.EnabledCompletion {
		return nil
	}

	if opts.Notify.FromEmail == "" {
		opts.Notify.FromEmail = "convtrack@" + makeHostName()
	}

	return notify.NewService(
		notify.Params{
			EnabledError:       opts.Notify.EnabledError,
			EnabledCompletion:  opts.Notify.EnabledCompletion,
			ErrorTemplate:      opts.Notify.ErrorTemplate,
			CompletionTemplate: opts.Notify.CompletionTemplate,
			HostName:           makeHostName(),
		},
		notify.SendersParams{
			SMTPHost:       opts.Notify.SMTPHost,
			SMTPPort:       opts.Notify.SMTPPort,
			SMTPUsername:   opts.Notify.SMTPUsername,
			SMTPPassword:   opts.Notify.SMTPPassword,
			SMTPTLS:        opts.Notify.SMTPTLS,
			SMTPTimeOut:    opts.Notify.SMTPTimeOut,
			FromEmail:      opts.Notify.FromEmail,
			ToEmails:       opts.Notify.ToEmails,
			SlackToken:     opts.Notify.SlackToken,
			SlackChannels:  opts.Notify.SlackChannels,
			WebhookURLs:    opts.Notify.Webhooks,
			WebhookTimeout: opts.Notify.Timeout,
			WebhookHeaders: opts.Notify.WebhookHeaders,
		},
	)
}

func makeHostName() string {
	if opts.Notify.HostName != "" {
		return opts.Notify.HostName
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

// setupLogs configures lgr and returns the writer logs go to
func setupLogs() io.Writer {
	if !opts.Log.Enabled {
		log.Setup(log.Out(io.Discard), log.Err(io.Discard))
		return io.Discard
	}

	var out io.Writer = os.Stdout
	if opts.Log.Filename != "" {
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxBackups: opts.Log.MaxBackups,
			MaxAge:     opts.Log.MaxAge,
			Compress:   opts.Log.EnabledCompress,
		}
	}

	if opts.Dbg {
		log.Setup(log.Debug, log.Msec, log.CallerFunc, log.CallerPkg, log.CallerFile, log.Out(out), log.Err(out))
		return out
	}
	log.Setup(log.Msec, log.Out(out), log.Err(out))
	return out
}

// signals handles SIGQUIT (stack dump), SIGUSR1/SIGUSR2 (hide/show, pauses and resumes polling)
// and SIGTERM/SIGINT (terminate)
func signals(cancel context.CancelFunc, gate *tracker.Gate) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			switch sig {
			case syscall.SIGQUIT:
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
			case syscall.SIGUSR1:
				log.Printf("[INFO] hidden, polling paused")
				gate.Hide()
			case syscall.SIGUSR2:
				log.Printf("[INFO] visible, polling resumed")
				gate.Show()
			default:
				cancel()
			}
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT, syscall.SIGUSR1, syscall.SIGUSR2)
}

// reporter prints tracker events and outcomes to the console
type reporter struct {
	out io.Writer
}

func (r *reporter) progress(e tracker.Event) {
	switch e.Kind {
	case tracker.EventQueued:
		fmt.Fprintf(r.out, "job %s queued\n", e.JobID)
	case tracker.EventProgress:
		msg := e.Message
		if msg == "" {
			msg = string(e.Status)
		}
		fmt.Fprintf(r.out, "job %s: %s\n", e.JobID, msg)
	case tracker.EventRetrying:
		fmt.Fprintf(r.out, "connection problem, retrying in %v (attempt %d)\n", e.Interval, e.Errors)
	case tracker.EventPaused:
		fmt.Fprintf(r.out, "job %s: polling paused\n", e.JobID)
	case tracker.EventResumed:
		fmt.Fprintf(r.out, "job %s: polling resumed\n", e.JobID)
	}
}

func (r *reporter) terminal(o tracker.Outcome) {
	fmt.Fprintln(r.out, o.String())
}

func (r *reporter) completed(res job.Result) {
	fmt.Fprintf(r.out, "completed %s: %s\n", res.Format, res.OutputURL)
}

func (r *reporter) resumed(j job.Job) {
	fmt.Fprintf(r.out, "resuming job %s (%s), started %s\n", j.ID, j.Format, j.StartedAt.Format(time.DateTime))
}

func (r *reporter) history(entries []job.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(r.out, "no history")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(r.out, "%s  %-5s %s\n", e.DisplayDate, e.Format, strings.TrimSpace(e.URL))
	}
}
