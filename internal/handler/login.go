package handler

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/driftgate/server/internal/core/event"
	"github.com/driftgate/server/internal/net"
	"github.com/driftgate/server/internal/net/packet"
)

const (
	loginFailBadCredentials byte = 1
	loginFailBanned         byte = 2
	loginFailInternal       byte = 3
)

// HandleLogin processes the login request.
// Format: [opcode][account\0][password\0]
func HandleLogin(sess *net.Session, r *packet.Reader, deps *Deps) {
	accountName := strings.ToLower(r.ReadS())
	password := r.ReadS()
	if r.Err() != nil || accountName == "" {
		sendLoginFail(sess, loginFailBadCredentials)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	account, err := deps.AccountRepo.Load(ctx, accountName)
	if err != nil {
		deps.Log.Error("account load failed", zap.Error(err))
		sendLoginFail(sess, loginFailInternal)
		return
	}

	if account == nil {
		if !deps.Config.Account.AutoCreate {
			sendLoginFail(sess, loginFailBadCredentials)
			return
		}
		account, err = deps.AccountRepo.Create(ctx, accountName, password)
		if err != nil {
			deps.Log.Error("account create failed", zap.Error(err))
			sendLoginFail(sess, loginFailInternal)
			return
		}
		deps.Log.Info("account auto-created", zap.String("account", accountName))
	} else if !deps.AccountRepo.ValidatePassword(account.PasswordHash, password) {
		sendLoginFail(sess, loginFailBadCredentials)
		return
	}

	if account.Banned {
		deps.Log.Info("banned account login attempt", zap.String("account", accountName))
		sendLoginFail(sess, loginFailBanned)
		return
	}

	if err := deps.AccountRepo.SetOnline(ctx, accountName, true); err != nil {
		deps.Log.Warn("set online failed", zap.Error(err))
	}
	if err := deps.AccountRepo.UpdateLastActive(ctx, accountName); err != nil {
		deps.Log.Warn("update last active failed", zap.Error(err))
	}

	sess.AccountName = accountName
	sess.SetState(packet.StateAuthenticated)
	sess.Send(packet.BuildLoginOK())

	event.Emit(deps.Bus, event.PlayerLoggedIn{
		SessionID: sess.ID,
		Account:   accountName,
	})

	deps.Log.Info("login ok",
		zap.String("account", accountName),
		zap.Uint64("session", sess.ID))
}

func sendLoginFail(sess *net.Session, reason byte) {
	sess.Send(packet.BuildLoginFail(reason))
}
