package email_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dukex/outreach/pkg/email"
	"github.com/dukex/outreach/pkg/execution"
	"github.com/dukex/outreach/pkg/leads"
	"github.com/dukex/outreach/pkg/mocks"
	"github.com/dukex/outreach/pkg/models"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var grace = models.Lead{Name: "Grace", Phone: "5550001", Email: "grace@example.com", CountryCode: "+1"}

func newRunContext(lead models.Lead) *execution.RunContext {
	journal := execution.NewJournal(clockwork.NewFakeClock(), nil)
	journal.Begin("run-1", 1)

	return &execution.RunContext{
		ID:      "run-1",
		Leads:   []models.Lead{lead},
		Store:   leads.NewStore(lead),
		Journal: journal,
	}
}

func TestBuildPrompt(t *testing.T) {
	followUp := email.BuildPrompt(grace, true, "price is too high", "")
	assert.Contains(t, followUp.User, "Lead name: Grace")
	assert.Contains(t, followUp.User, "price is too high")
	assert.Contains(t, followUp.User, "Sales call completed successfully")
	assert.Contains(t, followUp.User, "Thank them for their time")
	assert.Contains(t, followUp.User, "120-250 words")
	assert.NotEmpty(t, followUp.System)

	cold := email.BuildPrompt(grace, false, "ignored", "ignored")
	assert.NotContains(t, cold.User, "ignored")
	assert.Contains(t, cold.User, "value proposition")
	assert.Contains(t, cold.User, "120-180 words")
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Follow-up from Our Conversation - Grace", email.Subject(grace, true))
	assert.Equal(t, "Quick Question for Grace", email.Subject(grace, false))
}

func TestRenderHTML(t *testing.T) {
	html, err := email.RenderHTML("Grace", "First line\n\n  Second <b>line</b>  \n", "Acme Sales")
	require.NoError(t, err)

	assert.Contains(t, html, "Hi Grace,")
	assert.Contains(t, html, "<p>First line</p>")
	assert.Contains(t, html, "<p>Second &lt;b&gt;line&lt;/b&gt;</p>")
	assert.Equal(t, 2, strings.Count(html, "<p>"))
	assert.Contains(t, html, "This email was sent by Acme Sales")
}

func TestComposer_Compose(t *testing.T) {
	generator := &mocks.MockGenerator{}
	generator.On("Generate", mock.Anything, mock.MatchedBy(func(p email.Prompt) bool {
		return strings.Contains(p.User, "price is too high")
	})).Return("  Thanks for the call.\nLet's talk pricing.  ", nil)

	body, err := email.NewComposer(generator).Compose(context.Background(), grace, true, "price is too high", "objection")
	require.NoError(t, err)
	assert.Equal(t, "Thanks for the call.\nLet's talk pricing.", body)
	generator.AssertExpectations(t)
}

func TestComposer_ComposeErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		err     error
		wantErr error
	}{
		{name: "generator error", err: errors.New("rate limited"), wantErr: nil},
		{name: "empty body", body: "   ", wantErr: email.ErrEmptyBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := &mocks.MockGenerator{}
			generator.On("Generate", mock.Anything, mock.Anything).Return(tt.body, tt.err)

			_, err := email.NewComposer(generator).Compose(context.Background(), grace, false, "", "")
			require.Error(t, err)
			assert.True(t, email.IsCompositionError(err))
			assert.Contains(t, err.Error(), "Grace")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestDispatcher_Send(t *testing.T) {
	mailer := &mocks.MockMailer{}
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(m email.Message) bool {
		return m.To == "grace@example.com" &&
			m.ToName == "Grace" &&
			m.From == "sales@acme.test" &&
			m.FromName == "Acme" &&
			m.Subject == "Quick Question for Grace" &&
			strings.Contains(m.HTML, "<p>Hello there</p>")
	})).Return("msg-1", nil)

	rc := newRunContext(grace)
	dispatcher := email.NewDispatcher(mailer)

	err := dispatcher.Send(context.Background(), rc, grace, "Quick Question for Grace", "Hello there",
		models.SenderIdentity{Email: "sales@acme.test", Name: "Acme"})
	require.NoError(t, err)

	stored, _ := rc.Store.Get(grace.Key())
	assert.Equal(t, models.LeadStatusEmailSent, stored.Status)
	assert.Equal(t, models.Stats{Total: 1}, rc.Journal.Stats())

	entries := rc.Journal.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Sending email to grace@example.com", entries[0].Message)
	assert.Equal(t, "Email sent successfully to Grace", entries[1].Message)
	assert.Equal(t, models.SeveritySuccess, entries[1].Severity)
	mailer.AssertExpectations(t)
}

func TestDispatcher_SendUsesDefaultSender(t *testing.T) {
	mailer := &mocks.MockMailer{}
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(m email.Message) bool {
		return m.From == "default@acme.test" && m.FromName == "default@acme.test"
	})).Return("msg-2", nil)

	dispatcher := email.NewDispatcher(mailer, email.WithDefaultSender(models.SenderIdentity{Email: "default@acme.test"}))

	err := dispatcher.Send(context.Background(), newRunContext(grace), grace, "s", "b", models.SenderIdentity{})
	require.NoError(t, err)
	mailer.AssertExpectations(t)
}

func TestDispatcher_SendErrors(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		mailer := &mocks.MockMailer{}
		mailer.On("Send", mock.Anything, mock.Anything).Return("", errors.New("550 mailbox unavailable"))

		rc := newRunContext(grace)
		err := email.NewDispatcher(mailer).Send(context.Background(), rc, grace, "s", "b",
			models.SenderIdentity{Email: "sales@acme.test", Name: "Acme"})

		var deliveryErr *email.DeliveryError
		require.ErrorAs(t, err, &deliveryErr)
		assert.Equal(t, "550 mailbox unavailable", deliveryErr.Message)

		stored, _ := rc.Store.Get(grace.Key())
		assert.Equal(t, models.LeadStatusPending, stored.Status)
	})

	t.Run("no recipient", func(t *testing.T) {
		mailer := &mocks.MockMailer{}
		noEmail := models.Lead{Name: "Linus", Phone: "1"}

		err := email.NewDispatcher(mailer).Send(context.Background(), newRunContext(noEmail), noEmail, "s", "b",
			models.SenderIdentity{Email: "sales@acme.test"})
		assert.ErrorIs(t, err, email.ErrNoRecipient)
		assert.True(t, email.IsDeliveryError(err))
		mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("no sender", func(t *testing.T) {
		mailer := &mocks.MockMailer{}

		err := email.NewDispatcher(mailer).Send(context.Background(), newRunContext(grace), grace, "s", "b", models.SenderIdentity{})
		assert.ErrorIs(t, err, email.ErrMissingSender)
		mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}
