package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.infratographer.com/x/viperx"

	"go.infratographer.com/loadbalancer-details/internal/details"
	"go.infratographer.com/loadbalancer-details/internal/lbapi"
	"go.infratographer.com/loadbalancer-details/internal/pkg/pubsub"
	"go.infratographer.com/loadbalancer-details/internal/pkg/server"
	"go.infratographer.com/loadbalancer-details/internal/poller"
	gqlapi "go.infratographer.com/loadbalancer-details/pkg/lbapi"
)

// runCmd starts loadbalancer-details service
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "starts polling the load balancer and serves its details",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), viper.GetViper())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	v := viper.GetViper()
	flags := runCmd.PersistentFlags()

	flags.String("id", "", "ID of the load balancer to poll")
	viperx.MustBindFlag(v, "id", flags.Lookup("id"))

	flags.String("loadbalancerapi-url", "", "LoadbalancerAPI REST base url")
	viperx.MustBindFlag(v, "loadbalancerapi.url", flags.Lookup("loadbalancerapi-url"))

	flags.String("loadbalancerapi-token", "", "LoadbalancerAPI token")
	viperx.MustBindFlag(v, "loadbalancerapi.token", flags.Lookup("loadbalancerapi-token"))

	flags.String("loadbalancerapi-graphql-url", "", "LoadbalancerAPI GraphQL url, load balancers are queried over GraphQL when set")
	viperx.MustBindFlag(v, "loadbalancerapi.graphql-url", flags.Lookup("loadbalancerapi-graphql-url"))

	flags.Int("loadbalancerapi-retries", 3, "LoadbalancerAPI retries per request")
	viperx.MustBindFlag(v, "loadbalancerapi.retries", flags.Lookup("loadbalancerapi-retries"))

	flags.Duration("loadbalancerapi-timeout", 5*time.Second, "LoadbalancerAPI request timeout")
	viperx.MustBindFlag(v, "loadbalancerapi.timeout", flags.Lookup("loadbalancerapi-timeout"))

	flags.Bool("loadbalancerapi-wait-ready", false, "wait for LoadbalancerAPI to answer before polling")
	viperx.MustBindFlag(v, "loadbalancerapi.wait-ready", flags.Lookup("loadbalancerapi-wait-ready"))

	flags.Duration("poll-interval", poller.DefaultInterval, "time between two fetches")
	viperx.MustBindFlag(v, "poll.interval", flags.Lookup("poll-interval"))

	flags.Bool("poll-kube-resources", true, "also poll the kube resource with the same id")
	viperx.MustBindFlag(v, "poll.kube-resources", flags.Lookup("poll-kube-resources"))

	flags.String("nats-url", "", "NATS server connection url")
	viperx.MustBindFlag(v, "nats.url", flags.Lookup("nats-url"))

	flags.String("nats-creds", "", "Path to the file containing the NATS credentials")
	viperx.MustBindFlag(v, "nats.creds", flags.Lookup("nats-creds"))

	flags.String("nats-subject-prefix", "com.infratographer.ui.load-balancer", "NATS subject prefix for view actions")
	viperx.MustBindFlag(v, "nats.subject-prefix", flags.Lookup("nats-subject-prefix"))

	flags.String("back-path", details.DefaultBackPath, "destination of the back action")
	viperx.MustBindFlag(v, "navigation.back-path", flags.Lookup("back-path"))

	flags.String("listen", ":8080", "address to serve the details on")
	viperx.MustBindFlag(v, "listen", flags.Lookup("listen"))
}

func run(cmdCtx context.Context, v *viper.Viper) error {
	if err := validateMandatoryFlags(v); err != nil {
		return err
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	ctx, cancel := context.WithCancel(cmdCtx)
	defer cancel()

	go func() {
		select {
		case <-c:
			cancel()
		case <-ctx.Done():
		}
	}()

	id := v.GetString("id")

	restCli := lbapi.NewClient(v.GetString("loadbalancerapi.url"),
		lbapi.WithRetries(v.GetInt("loadbalancerapi.retries")),
		lbapi.WithTimeout(v.GetDuration("loadbalancerapi.timeout")),
		lbapi.WithToken(v.GetString("loadbalancerapi.token")),
		lbapi.WithLogger(logger),
	)

	if v.GetBool("loadbalancerapi.wait-ready") {
		if err := restCli.WaitForReady(ctx); err != nil {
			logger.Errorw("load balancer api never became ready", "error", err)
			return err
		}
	}

	opts := append(detailsOptions(v, restCli), details.WithLogger(logger))

	// init NATS
	if url := v.GetString("nats.url"); url != "" {
		nc, err := setupNATSClient(url, v.GetString("nats.creds"))
		if err != nil {
			return err
		}

		defer nc.Close()

		fwd, err := pubsub.OpenNATSForwarder(nc, v.GetString("nats.subject-prefix"),
			pubsub.WithSource(id),
			pubsub.WithLogger(logger),
		)
		if err != nil {
			logger.Errorw("failed opening nats topics", "error", err)
			return err
		}

		defer func() {
			if err := fwd.Close(context.Background()); err != nil {
				logger.Errorw("failed closing nats topics", "error", err)
			}
		}()

		opts = append(opts, details.WithModal(fwd), details.WithNavigator(fwd))
	}

	d, err := details.New(id, opts...)
	if err != nil {
		return err
	}

	if err := d.Start(ctx); err != nil {
		return err
	}

	srv := server.New(d,
		server.WithListenAddress(v.GetString("listen")),
		server.WithLogger(logger),
	)

	err = srv.Run(ctx)

	d.Stop()
	d.Wait()

	return err
}

// detailsOptions maps the polling and navigation config onto the details component
func detailsOptions(v *viper.Viper, restCli *lbapi.Client) []details.Option {
	opts := []details.Option{
		details.WithInterval(v.GetDuration("poll.interval")),
		details.WithLoadBalancerFetcher(loadBalancerFetcher(v, restCli)),
	}

	if p := v.GetString("navigation.back-path"); p != "" {
		opts = append(opts, details.WithBackPath(p))
	}

	if v.GetBool("poll.kube-resources") {
		opts = append(opts, details.WithKubeResourceFetcher(restCli.GetKubeResource))
	}

	return opts
}

// loadBalancerFetcher queries load balancers over GraphQL when a GraphQL url is configured
func loadBalancerFetcher(v *viper.Viper, restCli *lbapi.Client) poller.FetchFunc[lbapi.Resource] {
	url := v.GetString("loadbalancerapi.graphql-url")
	if url == "" {
		return restCli.GetLoadBalancer
	}

	var opts []gqlapi.Option
	if token := v.GetString("loadbalancerapi.token"); token != "" {
		opts = append(opts, gqlapi.WithBearerToken(token))
	}

	return graphQLFetcher(gqlapi.NewClient(url, opts...))
}

func graphQLFetcher(c *gqlapi.Client) poller.FetchFunc[lbapi.Resource] {
	return func(ctx context.Context, id string) (lbapi.Resource, error) {
		lb, err := c.GetLoadBalancer(ctx, id)
		if err != nil {
			return nil, err
		}

		return lb.Resource(), nil
	}
}

func setupNATSClient(url, creds string) (*nats.Conn, error) {
	nc, err := nats.Connect(url, nats.UserCredentials(creds), nats.Name(appName))
	if err != nil {
		logger.Errorw("failed connecting to nats", "error", err)
		return nil, err
	}

	return nc, nil
}

// validateMandatoryFlags collects the mandatory flag validation
func validateMandatoryFlags(v *viper.Viper) error {
	errs := []error{}

	if v.GetString("id") == "" {
		errs = append(errs, ErrIDRequired)
	}

	if v.GetString("loadbalancerapi.url") == "" {
		errs = append(errs, ErrLBAPIURLRequired)
	}

	if v.GetString("nats.url") != "" && v.GetString("nats.creds") == "" {
		errs = append(errs, ErrNATSAuthRequired)
	}

	if v.GetDuration("poll.interval") <= 0 {
		errs = append(errs, ErrPollIntervalInvalid)
	}

	return errors.Join(errs...)
}
