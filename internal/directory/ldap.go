package directory

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
)

// passwordAttribute is the Active Directory password attribute written by
// SetPassword.
const passwordAttribute = "unicodePwd"

// searchBufferSize is the async search result buffer.
const searchBufferSize = 64

// ldapClient implements Client over a go-ldap connection.
type ldapClient struct {
	conn      *ldap.Conn
	opTimeout time.Duration
}

// Dial is the production Connector. It establishes a transport-level session
// (TLS or plain) honoring the configured connect and operation timeouts.
func Dial(settings *models.DirectorySettings) (Client, error) {
	if settings == nil || !settings.Enabled {
		return nil, ErrDisabled
	}

	if settings.Host == "" || settings.BaseDN == "" {
		return nil, fmt.Errorf("%w: host or base DN not configured", ErrDisabled)
	}

	hostPort := net.JoinHostPort(settings.Host, strconv.Itoa(settings.Port))

	var ldapURL string
	if settings.UseSSL {
		ldapURL = "ldaps://" + hostPort
	} else {
		ldapURL = "ldap://" + hostPort
	}

	var tlsConfig *tls.Config
	if settings.UseSSL || settings.UseTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: settings.SkipVerify, //nolint:gosec // explicit operator opt-in
			ServerName:         settings.Host,
		}
	}

	connectTimeout := time.Duration(settings.ConnectTimeoutSeconds) * time.Second
	opTimeout := time.Duration(settings.OperationTimeoutSeconds) * time.Second

	conn, err := ldap.DialURL(ldapURL,
		ldap.DialWithDialer(&net.Dialer{Timeout: connectTimeout}),
		ldap.DialWithTLSConfig(tlsConfig),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnavailable, ldapURL, err)
	}

	// Upgrade to TLS if requested (for non-SSL connections)
	if !settings.UseSSL && settings.UseTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			if errClose := conn.Close(); errClose != nil {
				log.Error().Err(errClose).Msg("failed to close directory connection")
			}

			return nil, fmt.Errorf("%w: start tls: %v", ErrUnavailable, errStartTLS)
		}
	}

	if opTimeout > 0 {
		conn.SetTimeout(opTimeout)
	}

	return &ldapClient{conn: conn, opTimeout: opTimeout}, nil
}

// Bind authenticates a principal on this session.
func (c *ldapClient) Bind(dn, secret string) error {
	if err := c.conn.Bind(dn, secret); err != nil {
		return classify(err)
	}

	return nil
}

// Search starts a lazy subtree search. Results are delivered through the
// returned stream; a mid-stream protocol error terminates it via Err.
func (c *ldapClient) Search(baseDN, filter string, scope Scope, attributes []string) (*SearchStream, error) {
	timeLimit := int(c.opTimeout / time.Second)

	request := ldap.NewSearchRequest(
		baseDN,
		int(scope),
		ldap.NeverDerefAliases,
		0, // no size limit
		timeLimit,
		false,
		filter,
		attributes,
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	response := c.conn.SearchAsync(ctx, request, searchBufferSize)

	fetch := func() (*Entry, error) {
		for response.Next() {
			raw := response.Entry()
			if raw == nil {
				continue // referrals carry no entry
			}

			return convertEntry(raw), nil
		}

		if err := response.Err(); err != nil {
			return nil, classify(err)
		}

		return nil, nil
	}

	return newSearchStream(fetch, cancel), nil
}

// ModifyAttribute performs a single add, delete or replace of one attribute.
// Duplicate adds and missing deletes report benign outcomes instead of errors.
func (c *ldapClient) ModifyAttribute(dn string, op ModifyOp, attribute string, values ...string) (ModifyOutcome, error) {
	request := ldap.NewModifyRequest(dn, nil)

	switch op {
	case OpAdd:
		request.Add(attribute, values)
	case OpDelete:
		request.Delete(attribute, values)
	case OpReplace:
		request.Replace(attribute, values)
	}

	err := c.conn.Modify(request)
	if err == nil {
		return OutcomeApplied, nil
	}

	if op == OpAdd &&
		(ldap.IsErrorWithCode(err, ldap.LDAPResultAttributeOrValueExists) ||
			ldap.IsErrorWithCode(err, ldap.LDAPResultEntryAlreadyExists)) {
		return OutcomeAlreadyPresent, nil
	}

	if op == OpDelete && ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchAttribute) {
		return OutcomeAlreadyAbsent, nil
	}

	return OutcomeApplied, classify(err)
}

// SetPassword replaces the entry's unicodePwd attribute with the new password
// in the directory's quoted UTF-16LE encoding.
func (c *ldapClient) SetPassword(dn, newPassword string) error {
	encoded := EncodePassword(newPassword)

	_, err := c.ModifyAttribute(dn, OpReplace, passwordAttribute, string(encoded))

	return err
}

// Close releases the transport.
func (c *ldapClient) Close() {
	if err := c.conn.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close directory connection")
	}
}

// convertEntry copies a go-ldap entry into the package representation.
func convertEntry(raw *ldap.Entry) *Entry {
	attrs := make(map[string][]string, len(raw.Attributes))
	for _, a := range raw.Attributes {
		attrs[a.Name] = a.Values
	}

	return &Entry{DN: raw.DN, Attributes: attrs}
}
