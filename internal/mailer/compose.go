package mailer

import (
	"bytes"
	"fmt"
	"io"
	"math/rand/v2"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"jobapply-engine/internal/config"
)

// Profile is the applicant as presented in every email.
type Profile struct {
	Name       string
	Summary    string
	Phone      string
	Email      string
	Portfolio  string
	LinkedIn   string
	GitHub     string
	ResumePath string
}

func ProfileFromConfig(cfg config.Config) Profile {
	p := cfg.Profile
	return Profile{
		Name:       p.Name,
		Summary:    p.Summary,
		Phone:      p.Phone,
		Email:      p.Email,
		Portfolio:  p.Portfolio,
		LinkedIn:   p.LinkedIn,
		GitHub:     p.GitHub,
		ResumePath: p.ResumePath,
	}
}

var openings = []string{
	"I am writing to express my keen interest in the",
	"I was excited to see the opening for the",
	"I am writing to apply for the recently advertised",
}

var alignments = []string{
	"With my hands-on experience in network engineering and a strong foundation in cybersecurity, I am confident that my skills align perfectly with the requirements of this role.",
	"My background in network configuration, security protocols, and system administration, as detailed in my resume, makes me a strong candidate for this position.",
	"Given my practical skills in automation with Python and ongoing studies in Data Science, I am eager to apply my technical and analytical abilities to this role.",
}

type Draft struct {
	Subject string
	Body    string
}

// Compose writes the application for one job title. rnd picks the opening
// and alignment sentences so consecutive emails do not read identically.
func Compose(p Profile, title string, rnd *rand.Rand) Draft {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	opening := openings[rnd.IntN(len(openings))]
	alignment := alignments[rnd.IntN(len(alignments))]

	var b strings.Builder
	b.WriteString("Dear Hiring Manager,\n\n")
	fmt.Fprintf(&b, "%s %s position I saw advertised on TopJobs.lk.\n\n", opening, title)
	if s := strings.TrimSpace(p.Summary); s != "" {
		fmt.Fprintf(&b, "%s %s\n\n", s, alignment)
	} else {
		fmt.Fprintf(&b, "%s\n\n", alignment)
	}
	b.WriteString("My resume, which is attached for your review, provides further detail on my qualifications and projects. ")
	b.WriteString("I am particularly drawn to this opportunity and am eager to discuss how I can contribute to your team.\n\n")
	b.WriteString("Thank you for your time and consideration.\n\n")
	b.WriteString("Sincerely,\n\n")
	b.WriteString(p.Name)
	b.WriteString(signature(p))

	return Draft{
		Subject: fmt.Sprintf("Application for the %s Position - %s", title, p.Name),
		Body:    strings.TrimSpace(b.String()),
	}
}

func signature(p Profile) string {
	var lines []string
	var contact []string
	for _, v := range []string{p.Phone, p.Email} {
		if v = strings.TrimSpace(v); v != "" {
			contact = append(contact, v)
		}
	}
	if len(contact) > 0 {
		lines = append(lines, strings.Join(contact, " | "))
	}
	for _, kv := range [][2]string{{"Portfolio", p.Portfolio}, {"LinkedIn", p.LinkedIn}, {"GitHub", p.GitHub}} {
		if v := strings.TrimSpace(kv[1]); v != "" {
			lines = append(lines, kv[0]+": "+v)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n" + strings.Join(lines, "\n")
}

// BuildMessage renders d as a multipart message from -> to with the file
// at attachmentPath attached.
func BuildMessage(from *mail.Address, to string, d Draft, attachmentPath string, at time.Time) ([]byte, error) {
	att, err := os.Open(attachmentPath)
	if err != nil {
		return nil, fmt.Errorf("attachment: %w", err)
	}
	defer att.Close()

	var h mail.Header
	h.SetDate(at)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	h.SetSubject(d.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, err
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, err
	}
	var th mail.InlineHeader
	th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	pw, err := tw.CreatePart(th)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(pw, d.Body); err != nil {
		return nil, err
	}
	if err := pw.Close(); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}

	name := filepath.Base(attachmentPath)
	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	var ah mail.AttachmentHeader
	ah.SetContentType(ct, nil)
	ah.SetFilename(name)
	aw, err := mw.CreateAttachment(ah)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(aw, att); err != nil {
		return nil, fmt.Errorf("attachment: %w", err)
	}
	if err := aw.Close(); err != nil {
		return nil, err
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
